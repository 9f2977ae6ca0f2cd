package services

import (
	"context"
	"fmt"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/models"
	"go.uber.org/zap"
)

// SecurityLogRepository is the interface that wraps methods for the append-only audit log
type SecurityLogRepository interface {
	// Create appends an audit entry and fills in its generated id.
	Create(ctx context.Context, entry *models.SecurityLogEntry) error
	// ListRecent retrieves the most recent audit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]models.SecurityLogEntry, error)
}

// Gateway is the slice of the broadcast gateway the kill-switch needs
type Gateway interface {
	// NotifyAll sends an event to every currently registered connection.
	NotifyAll(eventType string, data any)
	// DisconnectAll force-closes every open connection through the normal
	// disconnect path.
	DisconnectAll()
}

// PanicNotice is the payload sent to clients before forced disconnection
type PanicNotice struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

// panicService implements the administrative kill-switch
type panicService struct {
	securityLogRepo SecurityLogRepository
	gateway         Gateway
	notice          PanicNotice
	logger          *zap.Logger
}

// NewPanicService creates a new panic service
func NewPanicService(
	securityLogRepo SecurityLogRepository,
	gateway Gateway,
	notice PanicNotice,
	logger *zap.Logger,
) *panicService {
	return &panicService{
		securityLogRepo: securityLogRepo,
		gateway:         gateway,
		notice:          notice,
		logger:          logger,
	}
}

// Activate notifies every live connection, writes one audit entry, and
// force-closes all connections. The notice goes out before any close so
// clients get a chance to navigate away. An audit write failure never blocks
// the disconnects; it is returned to the caller after they have happened.
// Activating with no connections open is a no-op that still logs and
// succeeds.
func (s *panicService) Activate(ctx context.Context, initiator *auth.Claims, ipAddress string) error {
	s.logger.Warn("panic button activated",
		zap.Int("userId", initiator.UserID),
		zap.String("username", initiator.Username),
	)

	s.gateway.NotifyAll(EventPanicActivated, s.notice)

	userID := initiator.UserID
	entry := &models.SecurityLogEntry{
		EventType:   models.EventPanicButton,
		Description: "Panic button activated",
		UserID:      &userID,
		IPAddress:   ipAddress,
	}
	auditErr := s.securityLogRepo.Create(ctx, entry)
	if auditErr != nil {
		// Getting users off the system outranks audit completeness.
		s.logger.Error("failed to write panic audit entry", zap.Error(auditErr))
	}

	s.gateway.DisconnectAll()

	if auditErr != nil {
		return fmt.Errorf("connections closed but audit write failed: %w", auditErr)
	}
	return nil
}

// EventPanicActivated is the outbound event name for the kill-switch notice
const EventPanicActivated = "panic_activated"
