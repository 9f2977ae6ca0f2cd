package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/gateway"
	"github.com/Plexi09/chatroom/internal/models"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// wsStubMessages persists nothing and echoes back the canonical message shape
type wsStubMessages struct {
	mu     sync.Mutex
	nextID int
}

func (s *wsStubMessages) Submit(ctx context.Context, userID int, username, content, formattedContent string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return &models.Message{
		ID:               s.nextID,
		UserID:           userID,
		Username:         username,
		Content:          content,
		FormattedContent: formattedContent,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
	}, nil
}

type wsTestServer struct {
	server         *httptest.Server
	tokenGenerator *auth.TokenGenerator
}

func newWSTestServer(t *testing.T) *wsTestServer {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	hub := gateway.NewHub(gateway.NewRegistry(), &wsStubMessages{}, logger)
	go hub.Run()
	t.Cleanup(func() { hub.Shutdown(5 * time.Second) })

	tokenGenerator := auth.NewTokenGenerator("test-secret", time.Hour)
	handler := NewWSHandler(hub, tokenGenerator, []string{"*"}, logger)

	server := httptest.NewServer(http.HandlerFunc(handler.Serve))
	t.Cleanup(server.Close)

	return &wsTestServer{server: server, tokenGenerator: tokenGenerator}
}

func (ts *wsTestServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.server.URL, "http")
}

// dial opens an authenticated connection using the query-parameter credential
func (ts *wsTestServer) dial(t *testing.T, user *models.User) *websocket.Conn {
	t.Helper()
	token, err := ts.tokenGenerator.Generate(user)
	require.NoError(t, err)

	conn, resp, err := websocket.DefaultDialer.Dial(ts.wsURL()+"?token="+token, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) gateway.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope gateway.Envelope
	require.NoError(t, json.Unmarshal(payload, &envelope))
	return envelope
}

// waitForUsers reads events until a presence update listing want usernames
func waitForUsers(t *testing.T, conn *websocket.Conn, want ...string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		envelope := readEvent(t, conn)
		if envelope.Type != gateway.EventUsersUpdate {
			continue
		}
		var users []models.PublicUser
		require.NoError(t, json.Unmarshal(envelope.Data, &users))
		if len(users) != len(want) {
			continue
		}
		got := make([]string, len(users))
		for i, u := range users {
			got[i] = u.Username
		}
		assert.ElementsMatch(t, want, got)
		return
	}
	t.Fatalf("no presence update listing %v", want)
}

func TestWSHandler_RejectsUnauthenticatedHandshake(t *testing.T) {
	ts := newWSTestServer(t)

	tests := []struct {
		name string
		url  string
	}{
		{
			name: "missing token",
			url:  ts.wsURL(),
		},
		{
			name: "garbage token",
			url:  ts.wsURL() + "?token=not-a-token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := websocket.DefaultDialer.Dial(tt.url, nil)

			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			assert.Nil(t, conn)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestWSHandler_RejectsExpiredToken(t *testing.T) {
	ts := newWSTestServer(t)

	expired := auth.NewTokenGenerator("test-secret", -time.Minute)
	token, err := expired.Generate(&models.User{ID: 1, Username: "alice", Role: models.RoleUser})
	require.NoError(t, err)

	_, resp, err := websocket.DefaultDialer.Dial(ts.wsURL()+"?token="+token, nil)

	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSHandler_EndToEndBroadcast(t *testing.T) {
	ts := newWSTestServer(t)

	alice := ts.dial(t, &models.User{ID: 1, Username: "alice", Role: models.RoleUser})
	waitForUsers(t, alice, "alice")

	bob := ts.dial(t, &models.User{ID: 2, Username: "bob", Role: models.RoleUser})
	waitForUsers(t, bob, "alice", "bob")
	// Alice sees the updated roster too
	waitForUsers(t, alice, "alice", "bob")

	// Bob speaks; both ends receive the canonical message
	payload, err := json.Marshal(gateway.Envelope{
		Type: gateway.EventMessage,
		Data: json.RawMessage(`{"content":"hello","formattedContent":"<p>hello</p>"}`),
	})
	require.NoError(t, err)
	require.NoError(t, bob.WriteMessage(websocket.TextMessage, payload))

	for _, conn := range []*websocket.Conn{alice, bob} {
		envelope := readEvent(t, conn)
		require.Equal(t, gateway.EventMessage, envelope.Type)

		var message models.Message
		require.NoError(t, json.Unmarshal(envelope.Data, &message))
		assert.Equal(t, 2, message.UserID)
		assert.Equal(t, "bob", message.Username)
		assert.Equal(t, "hello", message.Content)
		assert.Equal(t, "<p>hello</p>", message.FormattedContent)
		assert.NotZero(t, message.ID)
		assert.False(t, message.CreatedAt.IsZero())
	}
}

func TestWSHandler_DisconnectUpdatesPresence(t *testing.T) {
	ts := newWSTestServer(t)

	alice := ts.dial(t, &models.User{ID: 1, Username: "alice", Role: models.RoleUser})
	waitForUsers(t, alice, "alice")

	bob := ts.dial(t, &models.User{ID: 2, Username: "bob", Role: models.RoleUser})
	waitForUsers(t, alice, "alice", "bob")

	require.NoError(t, bob.Close())
	waitForUsers(t, alice, "alice")
}
