package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/models"
	"github.com/Plexi09/chatroom/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for session issuance.
type AuthService interface {
	// Login validates credentials and returns the user together with a
	// signed session token. Unknown usernames and wrong passwords both
	// yield services.ErrInvalidCredentials.
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error)
	// Logout deletes the session matching the token. Idempotent.
	Logout(ctx context.Context, token string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
	tokenExpiry time.Duration
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, tokenExpiry time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger},
		authService: authService,
		tokenExpiry: tokenExpiry,
	}
}

// RegisterRoutes registers all auth handler routes.
// Note: this assumes the router is already scoped to /api.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})
}

// Login handles POST /auth/login. On success the session token is set as an
// HTTP-only, same-site-strict cookie and the user is returned.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.RespondError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.Logger.Error("failed to login user", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenExpiry.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	h.RespondJSON(w, http.StatusOK, map[string]any{"user": user.Public()})
}

// Logout handles POST /auth/logout. Deleting an absent session is not an
// error; the cookie is cleared either way.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(auth.TokenCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.authService.Logout(r.Context(), token); err != nil {
		h.Logger.Error("failed to logout", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}
