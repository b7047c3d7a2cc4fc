package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler answers liveness probes; ping also checks the ephemeral store.
type HealthHandler struct {
	store pinger
}

func NewHealthHandler(store pinger) *HealthHandler { return &HealthHandler{store: store} }

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "action") != "ping" {
		writeMessage(w, http.StatusBadRequest, "unknown action")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "health check failed", "err", err)
		writeMessage(w, http.StatusServiceUnavailable, "redis unavailable")
		return
	}
	writeMessage(w, http.StatusOK, "pong")
}
