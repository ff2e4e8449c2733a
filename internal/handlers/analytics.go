package handlers

import (
	"net/http"

	"github.com/urbanpulse/report-server/internal/analytics"
	"github.com/urbanpulse/report-server/internal/filter"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"go.uber.org/zap"
)

// AnalyticsHandler serves the dashboard chart data
type AnalyticsHandler struct {
	reports  *services.ReportService
	sessions *filter.Sessions
	logger   *zap.SugaredLogger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(rs *services.ReportService, sessions *filter.Sessions, logger *zap.SugaredLogger) *AnalyticsHandler {
	return &AnalyticsHandler{reports: rs, sessions: sessions, logger: logger}
}

// load resolves the filter state and lists every report.
func (h *AnalyticsHandler) load(w http.ResponseWriter, r *http.Request) (*filter.State, []models.Report, bool) {
	st, err := dashboardState(h.sessions, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, nil, false
	}
	reports, err := h.reports.List(r.Context(), models.ReportFilter{})
	if err != nil {
		fail(w, r, h.logger, err, "Failed to load reports")
		return nil, nil, false
	}
	return st, reports, true
}

// TimeSeries handles GET /api/v1/analytics/timeseries
func (h *AnalyticsHandler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	st, reports, ok := h.load(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"filter":  st.Snapshot(),
		"series":  analytics.VisibleSeries(st),
		"buckets": analytics.BucketByTimeFrame(reports, st),
	})
}

// Categories handles GET /api/v1/analytics/categories
func (h *AnalyticsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	st, reports, ok := h.load(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, analytics.CategoriesInPeriod(reports, st))
}

// Hotspots handles GET /api/v1/analytics/hotspots
func (h *AnalyticsHandler) Hotspots(w http.ResponseWriter, r *http.Request) {
	st, reports, ok := h.load(w, r)
	if !ok {
		return
	}
	top := queryInt(r, "top", analytics.DefaultTopN)
	respondJSON(w, http.StatusOK, analytics.LocationHotspots(analytics.Filter(reports, st), top))
}

// Summary handles GET /api/v1/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	st, reports, ok := h.load(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, analytics.Summarize(analytics.Filter(reports, st)))
}
