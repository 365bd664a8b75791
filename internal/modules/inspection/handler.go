package inspection

import (
	"encoding/json"
	"net/http"

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
	router.Put("/api/v1/products/{id}/inspection-checklist", h.recordChecklist)
	router.Get("/api/v1/products/{id}/inspection-checklist", h.getChecklist)
	router.Get("/api/v1/products/{id}/inspection-definition", h.getDefinition)
}

func (h *Handler) recordChecklist(w http.ResponseWriter, r *http.Request) {
	var req ChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.WriteJSON(w, apperr.Validation("invalid request body: %v", err))
		return
	}

	c, err := h.service.RecordChecklist(r.Context(), chi.URLParam(r, "id"), req, auth.ActorFromContext(r.Context()))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, c)
}

func (h *Handler) getChecklist(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.GetChecklist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, c)
}

func (h *Handler) getDefinition(w http.ResponseWriter, r *http.Request) {
	def, err := h.service.ChecklistDefinition(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apperr.WriteJSON(w, err)
		return
	}

	respond(w, http.StatusOK, def)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
