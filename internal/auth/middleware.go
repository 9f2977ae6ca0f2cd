package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Plexi09/chatroom/internal/models"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenCookieName is the session cookie carrying the signed token. The same
// value doubles as the websocket handshake credential.
const TokenCookieName = "token"

// ExtractToken pulls the session token from the Authorization header, the
// session cookie, or the "token" query parameter (websocket handshake), in
// that order. Returns an empty string if none is present.
func ExtractToken(r *http.Request) string {
	// Try Authorization header first. Expected format: "Bearer <token>"
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}

	return r.URL.Query().Get(TokenCookieName)
}

// AuthMiddleware validates the session token and stores its claims in the
// request context. It rejects with no side effects before any handler runs.
func AuthMiddleware(tokenGenerator *TokenGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := tokenGenerator.Verify(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RoleMiddleware validates the session token and additionally requires the
// given role. A valid token with the wrong role yields 403 rather than 401.
func RoleMiddleware(tokenGenerator *TokenGenerator, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r)
			if token == "" {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := tokenGenerator.Verify(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if err := RequireRole(claims, role); err != nil {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims returns a context carrying verified claims
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves the verified claims from context
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}
