// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"foodbridge/backend/internal/platform/httpx"
)

// Pinger reports database reachability (e.g. *sqlx.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler serves /healthz and /readyz.
type Handler struct {
	db Pinger
}

// New returns a health handler. db may be nil, in which case
// readiness skips the database check.
func New(db Pinger) *Handler {
	return &Handler{db: db}
}

// Register mounts the probe routes on the given router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)
}

// Healthz is the liveness probe: the process is up.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz is the readiness probe: dependencies are reachable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "reason": "database unreachable"})
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
