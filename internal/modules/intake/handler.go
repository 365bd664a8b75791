package intake

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
	router.Post("/api/v1/delivery-plans", h.submitPlan)
	router.Post("/api/v1/delivery-plans/{id}/accept", h.acceptPlan)
	router.Post("/api/v1/delivery-plans/{id}/cancel", h.cancelPlan)
	router.Get("/api/v1/delivery-plans/{id}", h.getPlan)
	router.Get("/api/v1/delivery-plans", h.listPlans)
}

func (h *Handler) submitPlan(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	plan, err := h.service.SubmitPlan(r.Context(), req)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusCreated, plan)
}

func (h *Handler) acceptPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.AcceptPlan(r.Context(), chi.URLParam(r, "id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, plan)
}

func (h *Handler) cancelPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.CancelPlan(r.Context(), chi.URLParam(r, "id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, plan)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.service.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, plan)
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	plans, err := h.service.ListPlans(r.Context(), r.URL.Query().Get("sellerId"), limit)
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, plans)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
