package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/urbanpulse/report-server/internal/config"
	"github.com/urbanpulse/report-server/internal/models"
	"go.uber.org/zap"
)

var startTime = time.Now()

// Pinger is anything whose connectivity the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler provides health check endpoints
type HealthHandler struct {
	store   Pinger
	backend string
	digest  func() string
	logger  *zap.SugaredLogger
}

// NewHealthHandler creates a new health handler. digest may be nil.
func NewHealthHandler(store Pinger, backend string, digest func() string, logger *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{store: store, backend: backend, digest: digest, logger: logger}
}

// Check handles GET /api/v1/health (liveness probe)
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, models.HealthStatus{
		Status:  "ok",
		Version: config.Version,
		Uptime:  time.Since(startTime).String(),
		Backend: h.backend,
	})
}

// Ready handles GET /api/v1/health/ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.Warnw("Readiness check failed", "backend", h.backend, "error", err)
		respondJSON(w, http.StatusServiceUnavailable, models.HealthStatus{
			Status:  "not ready",
			Version: config.Version,
			Store:   "disconnected",
			Backend: h.backend,
		})
		return
	}

	status := models.HealthStatus{
		Status:  "ready",
		Version: config.Version,
		Uptime:  time.Since(startTime).String(),
		Store:   "connected",
		Backend: h.backend,
	}
	if h.digest != nil {
		status.Digest = h.digest()
	}
	respondJSON(w, http.StatusOK, status)
}
