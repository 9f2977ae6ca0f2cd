package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Plexi09/chatroom/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MessageHistoryService is the interface that wraps message history access.
type MessageHistoryService interface {
	// History returns the most recent limit messages in ascending
	// chronological order for initial client hydration.
	History(ctx context.Context, limit int) ([]models.Message, error)
}

// ChatHandler handles chat history requests
type ChatHandler struct {
	BaseHandler
	messages MessageHistoryService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(messages MessageHistoryService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		BaseHandler: BaseHandler{Logger: logger},
		messages:    messages,
	}
}

// RegisterRoutes registers chat routes. The caller applies the auth
// middleware; every route here requires a verified session.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Get("/messages", h.Messages)
}

// Messages handles GET /chat/messages?limit=50
func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			h.RespondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	messages, err := h.messages.History(r.Context(), limit)
	if err != nil {
		h.RespondInternalError(w, "failed to load messages", err)
		return
	}

	if messages == nil {
		messages = []models.Message{}
	}
	h.RespondJSON(w, http.StatusOK, messages)
}
