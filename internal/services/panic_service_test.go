package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// callRecorder keeps the interleaved order of gateway and audit calls
type callRecorder struct {
	calls []string
}

// mockGateway is a mock implementation of Gateway
type mockGateway struct {
	rec          *callRecorder
	notifiedType string
	notifiedData any
}

func (g *mockGateway) NotifyAll(eventType string, data any) {
	if g.rec != nil {
		g.rec.calls = append(g.rec.calls, "notify")
	}
	g.notifiedType = eventType
	g.notifiedData = data
}

func (g *mockGateway) DisconnectAll() {
	if g.rec != nil {
		g.rec.calls = append(g.rec.calls, "disconnect")
	}
}

// mockSecurityLogRepository is a mock implementation of SecurityLogRepository
type mockSecurityLogRepository struct {
	rec       *callRecorder
	err       error
	entries   []*models.SecurityLogEntry
	recent    []models.SecurityLogEntry
	lastLimit int
}

func (m *mockSecurityLogRepository) Create(ctx context.Context, entry *models.SecurityLogEntry) error {
	if m.rec != nil {
		m.rec.calls = append(m.rec.calls, "audit")
	}
	if m.err != nil {
		return m.err
	}
	entry.ID = len(m.entries) + 1
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockSecurityLogRepository) ListRecent(ctx context.Context, limit int) ([]models.SecurityLogEntry, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.recent, nil
}

func TestPanicService_Activate(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	notice := PanicNotice{
		Message:  "Session terminated by administrator",
		Redirect: "https://ecoledirecte.com",
	}
	initiator := &auth.Claims{UserID: 1, Username: "admin", Role: models.RoleAdmin}

	t.Run("notice goes out before audit, disconnect comes last", func(t *testing.T) {
		rec := &callRecorder{}
		gateway := &mockGateway{rec: rec}
		repo := &mockSecurityLogRepository{rec: rec}
		svc := NewPanicService(repo, gateway, notice, logger)

		err := svc.Activate(context.Background(), initiator, "192.0.2.1")

		require.NoError(t, err)
		assert.Equal(t, []string{"notify", "audit", "disconnect"}, rec.calls)

		assert.Equal(t, EventPanicActivated, gateway.notifiedType)
		assert.Equal(t, notice, gateway.notifiedData)

		require.Len(t, repo.entries, 1)
		entry := repo.entries[0]
		assert.Equal(t, models.EventPanicButton, entry.EventType)
		require.NotNil(t, entry.UserID)
		assert.Equal(t, 1, *entry.UserID)
		assert.Equal(t, "192.0.2.1", entry.IPAddress)
	})

	t.Run("audit failure still disconnects everyone", func(t *testing.T) {
		rec := &callRecorder{}
		gateway := &mockGateway{rec: rec}
		repo := &mockSecurityLogRepository{rec: rec, err: errors.New("database error")}
		svc := NewPanicService(repo, gateway, notice, logger)

		err := svc.Activate(context.Background(), initiator, "192.0.2.1")

		assert.Error(t, err)
		assert.Equal(t, []string{"notify", "audit", "disconnect"}, rec.calls)
	})
}
