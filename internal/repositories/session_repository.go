package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Plexi09/chatroom/internal/models"
	"go.uber.org/zap"
)

// sessionRepository implements the session store on MySQL
type sessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB, logger *zap.Logger) *sessionRepository {
	return &sessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a session row for a fresh login. last_active defaults to
// the database clock.
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `INSERT INTO sessions (user_id, token) VALUES (?, ?)`

	result, err := r.db.ExecContext(ctx, query, session.UserID, session.Token)
	if err != nil {
		r.logger.Error("failed to create session", zap.Error(err), zap.Int("userId", session.UserID))
		return fmt.Errorf("failed to create session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	session.ID = int(id)
	return nil
}

// DeleteByToken removes the session matching the token. Idempotent: deleting
// an absent token is not an error, so logout never fails on a stale cookie.
func (r *sessionRepository) DeleteByToken(ctx context.Context, token string) error {
	query := `DELETE FROM sessions WHERE token = ?`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		r.logger.Error("failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// CountByUserID returns the number of live sessions a user holds
func (r *sessionRepository) CountByUserID(ctx context.Context, userID int) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE user_id = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		r.logger.Error("failed to count sessions", zap.Error(err), zap.Int("userId", userID))
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	return count, nil
}
