package handlers

import (
	"net/http"
	"slices"
	"strings"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/gateway"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WSHandler authenticates connection upgrades and hands verified
// connections to the hub.
type WSHandler struct {
	BaseHandler
	hub            *gateway.Hub
	tokenGenerator *auth.TokenGenerator
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new websocket upgrade handler
func NewWSHandler(hub *gateway.Hub, tokenGenerator *auth.TokenGenerator, allowedOrigins []string, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		BaseHandler:    BaseHandler{Logger: logger},
		hub:            hub,
		tokenGenerator: tokenGenerator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// Serve handles GET /chat/ws. The handshake credential is the session
// cookie (or a token query parameter for clients that cannot send cookies
// cross-origin); verification failures refuse the upgrade before any
// handshake completes and create no registry entry.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := auth.ExtractToken(r)
	if token == "" {
		h.RespondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	claims, err := h.tokenGenerator.Verify(token)
	if err != nil {
		h.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		h.Logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Register(gateway.NewClient(conn, claims, h.hub))
}

// originChecker mirrors the CORS origin policy for websocket handshakes
func originChecker(allowedOrigins []string) func(*http.Request) bool {
	allowAll := slices.Contains(allowedOrigins, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowAll {
			return true
		}
		for _, allowed := range allowedOrigins {
			if strings.EqualFold(origin, allowed) {
				return true
			}
		}
		return false
	}
}
