package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"go.uber.org/zap"
)

const maxActivityLimit = 500

// ActivityHandler handles activity log endpoints
type ActivityHandler struct {
	svc    *services.ActivityService
	logger *zap.SugaredLogger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(svc *services.ActivityService, logger *zap.SugaredLogger) *ActivityHandler {
	return &ActivityHandler{svc: svc, logger: logger}
}

// Query handles GET /api/v1/activity
func (h *ActivityHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := models.ActivityQuery{Limit: min(queryInt(r, "limit", 50), maxActivityLimit)}
	ids := []struct {
		key string
		dst **int64
	}{
		{"report_id", &q.ReportID},
		{"user_id", &q.UserID},
		{"category_id", &q.CategoryID},
	}
	for _, id := range ids {
		v := r.URL.Query().Get(id.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid "+id.key)
			return
		}
		*id.dst = models.ID64(n)
	}
	for _, v := range r.URL.Query()["type"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Types = append(q.Types, models.ActivityType(t))
			}
		}
	}

	logs, err := h.svc.Fetch(r.Context(), q)
	if err != nil {
		fail(w, r, h.logger, err, "Failed to fetch activity")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// Recent handles GET /api/v1/activity/recent
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.FetchRecent(r.Context(), min(queryInt(r, "limit", 20), maxActivityLimit))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to fetch recent activity")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
