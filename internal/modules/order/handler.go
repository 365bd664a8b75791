package order

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/soko-dev/fulfillment-backend/internal/apperr"
	"github.com/soko-dev/fulfillment-backend/internal/modules/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.Post("/api/v1/orders", h.placeOrder)
	router.Post("/api/v1/orders/{id}/confirm", h.confirmOrder)
	router.Post("/api/v1/orders/{id}/cancel", h.cancelOrder)
	router.Get("/api/v1/orders/{id}", h.getOrder)
	router.Get("/api/v1/orders", h.listOrders)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	o, err := h.service.PlaceOrder(r.Context(), req, auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusCreated, o)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.service.ConfirmOrder(r.Context(), chi.URLParam(r, "id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, shipments)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, o)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, o)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.service.ListOrders(r.Context(), r.URL.Query().Get("buyerId"), limit)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, orders)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
