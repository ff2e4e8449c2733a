package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/urbanpulse/report-server/internal/middleware"
	"github.com/urbanpulse/report-server/internal/models"
	"github.com/urbanpulse/report-server/internal/services"
	"go.uber.org/zap"
)

// AdminHandler handles user and category management
type AdminHandler struct {
	users      *services.UserService
	categories *services.CategoryService
	logger     *zap.SugaredLogger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(us *services.UserService, cs *services.CategoryService, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{users: us, categories: cs, logger: logger}
}

// ListUsers handles GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		fail(w, r, h.logger, err, "Failed to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// GetUser handles GET /api/v1/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		fail(w, r, h.logger, err, "Failed to fetch user")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// CreateUser handles POST /api/v1/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, err := h.users.Create(r.Context(), in, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to create user")
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// UpdateUser handles PUT /api/v1/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, err := h.users.Update(r.Context(), id, in, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to update user")
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/v1/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if c := middleware.ClaimsFrom(r.Context()); c != nil && c.UserID() == id {
		respondError(w, http.StatusConflict, "Cannot delete your own account")
		return
	}
	deleted, err := h.users.Delete(r.Context(), id, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to delete user")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /api/v1/categories
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.categories.List(r.Context())
	if err != nil {
		fail(w, r, h.logger, err, "Failed to list categories")
		return
	}
	respondJSON(w, http.StatusOK, cats)
}

// CreateCategory handles POST /api/v1/admin/categories
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in models.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c, err := h.categories.Create(r.Context(), in, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to create category")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// UpdateCategory handles PUT /api/v1/admin/categories/{id}
func (h *AdminHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in models.CategoryInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	c, err := h.categories.Update(r.Context(), id, in, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to update category")
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// DeleteCategory handles DELETE /api/v1/admin/categories/{id}
func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.categories.Delete(r.Context(), id, middleware.Actor(r.Context()))
	if err != nil {
		fail(w, r, h.logger, err, "Failed to delete category")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "Category not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
