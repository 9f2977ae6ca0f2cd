package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Plexi09/chatroom/internal/models"
	"go.uber.org/zap"
)

// messageRepository implements the message log on MySQL
type messageRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *sql.DB, logger *zap.Logger) *messageRepository {
	return &messageRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a message to the log. CreatedAt is set by the caller from
// the server clock, never from client-supplied time.
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `
		INSERT INTO messages (user_id, content, formatted_content, created_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, message.UserID, message.Content, message.FormattedContent, message.CreatedAt)
	if err != nil {
		r.logger.Error("failed to create message", zap.Error(err), zap.Int("userId", message.UserID))
		return fmt.Errorf("failed to create message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	message.ID = int(id)
	return nil
}

// ListRecent retrieves the most recent messages joined with their authors'
// usernames, newest first. Ties on created_at resolve by id so ordering
// follows insertion.
func (r *messageRepository) ListRecent(ctx context.Context, limit int) ([]models.Message, error) {
	query := `
		SELECT m.id, m.user_id, u.username, m.content, m.formatted_content, m.created_at
		FROM messages m
		JOIN users u ON m.user_id = u.id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("failed to list recent messages", zap.Error(err))
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Username, &m.Content, &m.FormattedContent, &m.CreatedAt); err != nil {
			r.logger.Error("failed to scan message row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}

	return messages, nil
}
