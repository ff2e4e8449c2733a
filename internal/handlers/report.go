// Package handlers contains HTTP request handlers for the report API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/urbanpulse/report-server/internal/middleware"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"github.com/urbanpulse/report-server/internal/store"
	"go.uber.org/zap"
)

// ReportHandler handles report CRUD endpoints
type ReportHandler struct {
	svc      *services.ReportService
	activity *services.ActivityService
	logger   *zap.SugaredLogger
}

// NewReportHandler creates a new report handler
func NewReportHandler(svc *services.ReportService, as *services.ActivityService, logger *zap.SugaredLogger) *ReportHandler {
	return &ReportHandler{svc: svc, activity: as, logger: logger}
}

// List handles GET /api/v1/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.ReportFilter{
		Category:   q.Get("category"),
		AssignedTo: q.Get("assigned_to"),
	}
	if v := q.Get("status"); v != "" {
		status, err := models.ParseStatus(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Status = status
	}

	reports, err := h.svc.List(r.Context(), f)
	if err != nil {
		fail(w, r, h.logger, err, "Failed to list reports")
		return
	}
	respondJSON(w, http.StatusOK, reports)
}

// Create handles POST /api/v1/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.svc.Create(r.Context(), in, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to create report")
		return
	}
	respondJSON(w, http.StatusCreated, report)
}

// Get handles GET /api/v1/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, err, "Failed to fetch report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Update handles PATCH /api/v1/reports/{id}
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p models.ReportPatch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	report, err := h.svc.Update(r.Context(), id, p, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to update report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /api/v1/reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.svc.Delete(r.Context(), id, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to delete report")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "Report not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activity handles GET /api/v1/reports/{id}/activity
func (h *ReportHandler) Activity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	logs, err := h.activity.Fetch(r.Context(), models.ActivityQuery{ReportID: models.ID64(id), Limit: queryInt(r, "limit", 50)})
	if err != nil {
		fail(w, r, h.logger, err, "Failed to fetch activity")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return fallback
}

// statusFor maps service and store errors to HTTP status codes.
func statusFor(err error) int {
	var ve *services.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve), errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrIllegalTransition), errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// fail writes the error response. Server errors are logged, reported to
// Sentry when configured, and answered with a generic message.
func fail(w http.ResponseWriter, r *http.Request, logger *zap.SugaredLogger, err error, message string) {
	status := statusFor(err)
	if status != http.StatusInternalServerError {
		respondError(w, status, err.Error())
		return
	}
	logger.Errorw(message, "error", err, "path", r.URL.Path)
	if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
		hub.CaptureException(err)
	}
	respondError(w, status, message)
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
