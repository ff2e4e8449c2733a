package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"go.uber.org/zap"
)

// IntegrityHandler serves the activity digest root and inclusion proofs
type IntegrityHandler struct {
	svc    *services.DigestService
	logger *zap.SugaredLogger
}

// NewIntegrityHandler creates a new integrity handler
func NewIntegrityHandler(svc *services.DigestService, logger *zap.SugaredLogger) *IntegrityHandler {
	return &IntegrityHandler{svc: svc, logger: logger}
}

// GetRoot handles GET /api/v1/activity/integrity/root
func (h *IntegrityHandler) GetRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"root":       h.svc.Root(),
		"leaf_count": h.svc.LeafCount(),
		"timestamp":  h.svc.LastBuildTime(),
	})
}

// GetProof handles GET /api/v1/activity/integrity/proof/{index}
func (h *IntegrityHandler) GetProof(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid index")
		return
	}

	proof, err := h.svc.Proof(index)
	if err != nil {
		respondError(w, http.StatusNotFound, "Proof not available for index")
		return
	}

	respondJSON(w, http.StatusOK, proof)
}

// Verify handles POST /api/v1/activity/integrity/verify
func (h *IntegrityHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var proof models.DigestProof
	if err := json.NewDecoder(r.Body).Decode(&proof); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{
		"valid":                services.Verify(proof),
		"root_matches_current": proof.Root != "" && proof.Root == h.svc.Root(),
	})
}
