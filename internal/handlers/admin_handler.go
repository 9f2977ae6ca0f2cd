package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/models"
	"github.com/Plexi09/chatroom/internal/repositories"
	"github.com/Plexi09/chatroom/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps user management and audit access.
type AdminService interface {
	// CreateUser creates an account with a hashed password.
	CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	// UpdateUserRole changes a user's role, effective on next token issuance.
	UpdateUserRole(ctx context.Context, userID int, role models.Role) error
	// ListUsers returns all accounts.
	ListUsers(ctx context.Context) ([]models.User, error)
	// GetUser returns one account together with its live session count.
	GetUser(ctx context.Context, userID int) (*models.User, int, error)
	// SecurityLogs returns the most recent audit entries, newest first.
	SecurityLogs(ctx context.Context, limit int) ([]models.SecurityLogEntry, error)
}

// PanicService is the interface that wraps the kill-switch.
type PanicService interface {
	// Activate notifies and force-disconnects every live connection and
	// writes one audit entry.
	Activate(ctx context.Context, initiator *auth.Claims, ipAddress string) error
}

// AdminHandler handles administrative HTTP requests. Every route requires
// the admin role; the role middleware is applied by the caller.
type AdminHandler struct {
	BaseHandler
	adminService AdminService
	panicService PanicService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService AdminService, panicService PanicService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  BaseHandler{Logger: logger},
		adminService: adminService,
		panicService: panicService,
	}
}

// RegisterRoutes registers all admin handler routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Post("/panic", h.Panic)
	r.Post("/users", h.CreateUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Get("/users", h.ListUsers)
	r.Get("/users/{id}", h.UserDetail)
	r.Get("/security-logs", h.SecurityLogs)
}

// Panic handles POST /admin/panic: the kill-switch. Disconnection proceeds
// even when the audit write fails; only then is the failure reported.
func (h *AdminHandler) Panic(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.GetClaims(r.Context())
	if !ok {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.panicService.Activate(r.Context(), claims, r.RemoteAddr); err != nil {
		h.Logger.Error("panic activation completed with errors", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "connections closed but audit logging failed")
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CreateUser handles POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserExists):
			h.RespondError(w, http.StatusBadRequest, "username or email already in use")
		case errors.Is(err, services.ErrInvalidRole):
			h.RespondError(w, http.StatusBadRequest, "invalid role")
		default:
			h.RespondInternalError(w, "failed to create user", err)
		}
		return
	}

	h.RespondJSON(w, http.StatusCreated, user.Public())
}

// UpdateUser handles PUT /admin/users/{id}. Only the role can change; live
// connections keep the role baked into their token.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.adminService.UpdateUserRole(r.Context(), userID, req.Role); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRole):
			h.RespondError(w, http.StatusBadRequest, "invalid role")
		case errors.Is(err, repositories.ErrNotFound):
			h.RespondError(w, http.StatusNotFound, "user not found")
		default:
			h.RespondInternalError(w, "failed to update user", err, zap.Int("userId", userID))
		}
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

// ListUsers handles GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.RespondInternalError(w, "failed to list users", err)
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].Public())
	}
	h.RespondJSON(w, http.StatusOK, public)
}

// UserDetail handles GET /admin/users/{id}
func (h *AdminHandler) UserDetail(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, sessions, err := h.adminService.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			h.RespondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.RespondInternalError(w, "failed to load user", err, zap.Int("userId", userID))
		return
	}

	h.RespondJSON(w, http.StatusOK, models.UserDetail{
		User:           user.Public(),
		ActiveSessions: sessions,
	})
}

// SecurityLogs handles GET /admin/security-logs
func (h *AdminHandler) SecurityLogs(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			h.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	logs, err := h.adminService.SecurityLogs(r.Context(), limit)
	if err != nil {
		h.RespondInternalError(w, "failed to list security logs", err)
		return
	}

	if logs == nil {
		logs = []models.SecurityLogEntry{}
	}
	h.RespondJSON(w, http.StatusOK, logs)
}
