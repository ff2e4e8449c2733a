package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/urbanpulse/report-server/internal/filter"
	"github.com/urbanpulse/report-server/internal/middleware"
	"go.uber.org/zap"
)

// FilterHandler exposes the session's dashboard filter state
type FilterHandler struct {
	sessions *filter.Sessions
	logger   *zap.SugaredLogger
}

// NewFilterHandler creates a new filter handler
func NewFilterHandler(sessions *filter.Sessions, logger *zap.SugaredLogger) *FilterHandler {
	return &FilterHandler{sessions: sessions, logger: logger}
}

// Get handles GET /api/v1/filter
func (h *FilterHandler) Get(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Get(middleware.SessionID(r.Context()))
	respondJSON(w, http.StatusOK, st.Snapshot())
}

// Patch handles PATCH /api/v1/filter
func (h *FilterHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var p filter.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	st, err := h.sessions.Update(middleware.SessionID(r.Context()), func(s *filter.State) error {
		return s.ApplyPatch(p)
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st.Snapshot())
}

// SetView handles PUT /api/v1/filter/view
func (h *FilterHandler) SetView(w http.ResponseWriter, r *http.Request) {
	var body struct {
		View filter.View `json:"view"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	st, err := h.sessions.Update(middleware.SessionID(r.Context()), func(s *filter.State) error {
		return s.SetView(body.View)
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st.Snapshot())
}

// dashboardState returns the session state with query-string overrides
// applied to a copy; the stored session is not changed.
func dashboardState(sessions *filter.Sessions, r *http.Request) (*filter.State, error) {
	st := sessions.Get(middleware.SessionID(r.Context()))
	if err := st.Apply(r.URL.Query()); err != nil {
		return nil, err
	}
	return st, nil
}
