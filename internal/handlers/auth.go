package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/urbanpulse/report-server/internal/middleware"
	"github.com/urbanpulse/report-server/internal/services"
	"go.uber.org/zap"
)

const tokenTTL = 24 * time.Hour

// AuthHandler issues API tokens
type AuthHandler struct {
	users  *services.UserService
	secret string
	logger *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, secret string, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{users: users, secret: secret, logger: logger}
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, r, h.logger, err, "Failed to authenticate")
		return
	}
	token, exp, err := middleware.IssueToken(h.secret, *u, tokenTTL)
	if err != nil {
		fail(w, r, h.logger, err, "Failed to issue token")
		return
	}

	h.logger.Infow("User logged in", "user_id", u.ID, "role", u.Role)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_at": exp,
		"user":       u,
	})
}
