package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Plexi09/chatroom/internal/models"
	"go.uber.org/zap"
)

// securityLogRepository implements the audit log on MySQL
type securityLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSecurityLogRepository creates a new security log repository
func NewSecurityLogRepository(db *sql.DB, logger *zap.Logger) *securityLogRepository {
	return &securityLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit entry. The log is append-only; there is no update
// or delete path.
func (r *securityLogRepository) Create(ctx context.Context, entry *models.SecurityLogEntry) error {
	query := `
		INSERT INTO security_logs (event_type, description, user_id, ip_address)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, entry.EventType, entry.Description, entry.UserID, entry.IPAddress)
	if err != nil {
		r.logger.Error("failed to create security log entry", zap.Error(err), zap.String("eventType", entry.EventType))
		return fmt.Errorf("failed to create security log entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		r.logger.Error("failed to get last insert id", zap.Error(err))
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = int(id)
	return nil
}

// ListRecent retrieves the most recent audit entries with the acting user's
// username when one is attributable, newest first.
func (r *securityLogRepository) ListRecent(ctx context.Context, limit int) ([]models.SecurityLogEntry, error) {
	query := `
		SELECT l.id, l.event_type, l.description, l.user_id, COALESCE(u.username, ''), COALESCE(l.ip_address, ''), l.created_at
		FROM security_logs l
		LEFT JOIN users u ON l.user_id = u.id
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("failed to list security logs", zap.Error(err))
		return nil, fmt.Errorf("failed to list security logs: %w", err)
	}
	defer rows.Close()

	var entries []models.SecurityLogEntry
	for rows.Next() {
		var e models.SecurityLogEntry
		if err := rows.Scan(&e.ID, &e.EventType, &e.Description, &e.UserID, &e.Username, &e.IPAddress, &e.CreatedAt); err != nil {
			r.logger.Error("failed to scan security log row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan security log row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate security log rows: %w", err)
	}

	return entries, nil
}
