package shipping

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
	router.Post("/api/v1/picking", h.createPickingInstruction)
	router.Post("/api/v1/shipping/pack", h.completePacking)
	router.Post("/api/v1/shipping/{id}/ready", h.markReady)
	router.Post("/api/v1/shipping/{id}/ship", h.markShipped)
	router.Post("/api/v1/shipping/{id}/deliver", h.markDelivered)
	router.Get("/api/v1/shipping", h.listShipments)
	router.Get("/api/v1/shipping/{id}", h.getShipment)
	router.Delete("/api/v1/bundles/{productId}", h.removeFromBundle)
}

func (h *Handler) removeFromBundle(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	if err := h.service.RemoveFromBundle(r.Context(), productID, auth.ActorFromContext(r.Context())); err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{"product_id": productID, "bundle": "removed"})
}

func (h *Handler) createPickingInstruction(w http.ResponseWriter, r *http.Request) {
	var req PickingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	shipments, err := h.service.CreatePickingInstruction(r.Context(), req, auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusCreated, shipments)
}

func (h *Handler) completePacking(w http.ResponseWriter, r *http.Request) {
	var req PackingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	if err := h.service.CompletePacking(r.Context(), req, auth.ActorFromContext(r.Context())); err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, map[string]string{"status": "packed"})
}

func (h *Handler) markReady(w http.ResponseWriter, r *http.Request) {
	var req ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	shipments, err := h.service.MarkReadyForPickup(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, shipments)
}

func (h *Handler) markShipped(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.service.MarkShipped(r.Context(), chi.URLParam(r, "id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, shipments)
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.service.MarkDelivered(r.Context(), chi.URLParam(r, "id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, shipments)
}

func (h *Handler) listShipments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	shipments, err := h.service.ListShipments(r.Context(), r.URL.Query().Get("status"), limit)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, shipments)
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	shipment, err := h.service.GetShipment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, shipment)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
