package activity

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
)

type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Get("/api/v1/activities", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	productID := r.URL.Query().Get("productId")
	orderID := r.URL.Query().Get("orderId")

	var (
		activities []*Activity
		err        error
	)
	switch {
	case productID != "":
		activities, err = h.service.ListByProduct(r.Context(), productID, limit)
	case orderID != "":
		activities, err = h.service.ListByOrder(r.Context(), orderID, limit)
	default:
		activities, err = h.service.ListRecent(r.Context(), limit)
	}
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, activities)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
