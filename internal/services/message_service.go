package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Plexi09/chatroom/internal/models"
	"go.uber.org/zap"
)

// DefaultHistoryLimit is used when a client asks for history without a limit
const DefaultHistoryLimit = 50

// MaxHistoryLimit caps a single history request
const MaxHistoryLimit = 200

// MessageRepository is the interface that wraps methods for Message table data access
type MessageRepository interface {
	// Create appends a message and fills in its generated id.
	Create(ctx context.Context, message *models.Message) error
	// ListRecent retrieves the most recent messages, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.Message, error)
}

// messageService persists messages and shapes the canonical broadcast payload
type messageService struct {
	messageRepo MessageRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(messageRepo MessageRepository, logger *zap.Logger) *messageService {
	return &messageService{
		messageRepo: messageRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit validates and persists a message and returns the fully-formed value
// used verbatim for broadcast. The timestamp comes from the server clock so
// clients cannot spoof ordering.
func (s *messageService) Submit(ctx context.Context, userID int, username, content, formattedContent string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	message := &models.Message{
		UserID:           userID,
		Username:         username,
		Content:          content,
		FormattedContent: formattedContent,
		CreatedAt:        s.now().UTC().Truncate(time.Second),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	s.logger.Debug("message persisted", zap.Int("messageId", message.ID), zap.Int("userId", userID))
	return message, nil
}

// History returns the most recent limit messages in ascending chronological
// order (oldest first) for initial client hydration. The repository query is
// newest-first, so the result is reversed before returning.
func (s *messageService) History(ctx context.Context, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	messages, err := s.messageRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load message history: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}
