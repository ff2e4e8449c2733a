package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/urbanpulse/report-server/internal/events"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

// StreamHandler pushes report change events to dashboards over SSE
type StreamHandler struct {
	broker    events.Broker
	logger    *zap.SugaredLogger
	keepAlive time.Duration
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(broker events.Broker, logger *zap.SugaredLogger) *StreamHandler {
	return &StreamHandler{broker: broker, logger: logger, keepAlive: keepAliveInterval}
}

// Stream handles GET /api/v1/reports/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// Streams outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && err != http.ErrNotSupported {
		h.logger.Warnw("Failed to clear write deadline", "error", err)
	}

	ch, cancel := h.broker.Subscribe(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		h.logger.Errorw("Streaming not supported", "error", err)
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case e, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Errorw("Failed to encode event", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, data); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
