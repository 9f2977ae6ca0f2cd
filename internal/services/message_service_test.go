package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Plexi09/chatroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockMessageRepository is a mock implementation of MessageRepository
type mockMessageRepository struct {
	err       error
	recent    []models.Message
	created   []*models.Message
	lastLimit int
}

func (m *mockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	if m.err != nil {
		return m.err
	}
	message.ID = len(m.created) + 1
	m.created = append(m.created, message)
	return nil
}

func (m *mockMessageRepository) ListRecent(ctx context.Context, limit int) ([]models.Message, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Message(nil), m.recent...), nil
}

func TestMessageService_Submit(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	fixedNow := time.Date(2026, 8, 28, 12, 0, 0, 123456789, time.UTC)

	tests := []struct {
		name          string
		content       string
		formatted     string
		repo          *mockMessageRepository
		expectedError error
	}{
		{
			name:      "success",
			content:   "hello world",
			formatted: "<p>hello world</p>",
			repo:      &mockMessageRepository{},
		},
		{
			name:          "empty content",
			content:       "",
			repo:          &mockMessageRepository{},
			expectedError: ErrEmptyMessage,
		},
		{
			name:          "whitespace-only content",
			content:       "   \t\n",
			repo:          &mockMessageRepository{},
			expectedError: ErrEmptyMessage,
		},
		{
			name:          "persist error",
			content:       "hello",
			repo:          &mockMessageRepository{err: errors.New("database error")},
			expectedError: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMessageService(tt.repo, logger)
			svc.now = func() time.Time { return fixedNow }

			message, err := svc.Submit(context.Background(), 1, "alice", tt.content, tt.formatted)

			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Nil(t, message)
				if errors.Is(tt.expectedError, ErrEmptyMessage) {
					assert.ErrorIs(t, err, ErrEmptyMessage)
					// Rejected input never reaches the repository
					assert.Empty(t, tt.repo.created)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, message)
			assert.Equal(t, 1, message.ID)
			assert.Equal(t, 1, message.UserID)
			assert.Equal(t, "alice", message.Username)
			assert.Equal(t, tt.content, message.Content)
			assert.Equal(t, tt.formatted, message.FormattedContent)
			// Server clock, truncated to second precision
			assert.Equal(t, fixedNow.Truncate(time.Second), message.CreatedAt)
			require.Len(t, tt.repo.created, 1)
			assert.Same(t, message, tt.repo.created[0])
		})
	}
}

func TestMessageService_History(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	newestFirst := []models.Message{
		{ID: 3, Content: "third", CreatedAt: now},
		{ID: 2, Content: "second", CreatedAt: now.Add(-time.Minute)},
		{ID: 1, Content: "first", CreatedAt: now.Add(-2 * time.Minute)},
	}

	tests := []struct {
		name          string
		limit         int
		repo          *mockMessageRepository
		expectedLimit int
		expectedError bool
	}{
		{
			name:          "explicit limit",
			limit:         3,
			repo:          &mockMessageRepository{recent: newestFirst},
			expectedLimit: 3,
		},
		{
			name:          "zero limit uses default",
			limit:         0,
			repo:          &mockMessageRepository{recent: newestFirst},
			expectedLimit: DefaultHistoryLimit,
		},
		{
			name:          "negative limit uses default",
			limit:         -5,
			repo:          &mockMessageRepository{recent: newestFirst},
			expectedLimit: DefaultHistoryLimit,
		},
		{
			name:          "oversized limit is clamped",
			limit:         10000,
			repo:          &mockMessageRepository{recent: newestFirst},
			expectedLimit: MaxHistoryLimit,
		},
		{
			name:          "repository error",
			limit:         50,
			repo:          &mockMessageRepository{err: errors.New("database error")},
			expectedLimit: 50,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMessageService(tt.repo, logger)

			messages, err := svc.History(context.Background(), tt.limit)

			assert.Equal(t, tt.expectedLimit, tt.repo.lastLimit)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Nil(t, messages)
				return
			}

			require.NoError(t, err)
			require.Len(t, messages, 3)
			// Oldest first for client hydration
			assert.Equal(t, "first", messages[0].Content)
			assert.Equal(t, "second", messages[1].Content)
			assert.Equal(t, "third", messages[2].Content)
		})
	}
}

func TestMessageService_History_Empty(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	svc := NewMessageService(&mockMessageRepository{}, logger)

	messages, err := svc.History(context.Background(), 50)

	assert.NoError(t, err)
	assert.Empty(t, messages)
}
