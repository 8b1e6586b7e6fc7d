package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/marque-api/internal/transport/http/middleware"
)

// HealthHandler handles liveness probes.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "action") == "ping" {
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
		return
	}
	writeJSON(w, http.StatusBadRequest, middleware.ErrorBody{Error: "validation_error", Message: "unknown action"})
}
