package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urbanpulse/report-server/internal/analytics"
	"github.com/urbanpulse/report-server/internal/export"
	"github.com/urbanpulse/report-server/internal/filter"
	"github.com/urbanpulse/report-server/internal/middleware"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"go.uber.org/zap"
)

// ExportHandler streams chart data and report lists as CSV downloads
type ExportHandler struct {
	reports  *services.ReportService
	activity *services.ActivityService
	sessions *filter.Sessions
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewExportHandler creates a new export handler
func NewExportHandler(rs *services.ReportService, as *services.ActivityService, sessions *filter.Sessions, logger *zap.SugaredLogger) *ExportHandler {
	return &ExportHandler{reports: rs, activity: as, sessions: sessions, logger: logger, now: time.Now}
}

// Export handles GET /api/v1/export/{file}, where file is <kind>.csv
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if !strings.HasSuffix(file, ".csv") {
		respondError(w, http.StatusNotFound, "Unknown export")
		return
	}
	kind, err := export.ParseKind(strings.TrimSuffix(file, ".csv"))
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	st, err := dashboardState(h.sessions, r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	reports, err := h.reports.List(r.Context(), models.ReportFilter{})
	if err != nil {
		fail(w, r, h.logger, err, "Failed to load reports")
		return
	}

	headers, rows := export.Build(kind, reports, st, queryInt(r, "top", analytics.DefaultTopN))
	body, err := export.ToCSV(rows, headers)
	if errors.Is(err, export.ErrNothingToExport) {
		w.Header().Set("X-Export-Status", "empty")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		fail(w, r, h.logger, err, "Failed to build export")
		return
	}

	filename := export.Filename(kind, st, h.now().In(st.Location()))
	h.activity.Record(r.Context(), models.ActivityEntry{
		Type:        models.ActivityExportGenerated,
		Title:       "Export generated",
		Description: fmt.Sprintf("%s (%d rows)", filename, len(rows)),
		Actor:       middleware.Actor(r.Context()),
	})

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
