package product

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
	router.Get("/api/v1/products", h.listProducts)
	router.Get("/api/v1/products/{id}", h.getProduct)
	router.Post("/api/v1/products/{id}/transition", h.transition)
	router.Post("/api/v1/products/{id}/cancel", h.cancel)
	router.Post("/api/v1/products/{id}/location", h.moveToLocation)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.service.ListProducts(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, p)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	p, err := h.service.Transition(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, p)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	p, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, p)
}

func (h *Handler) moveToLocation(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Location string `json:"location"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	if err := h.service.MoveToLocation(r.Context(), chi.URLParam(r, "id"), req.Location, auth.ActorFromContext(r.Context())); err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{"location": req.Location})
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
