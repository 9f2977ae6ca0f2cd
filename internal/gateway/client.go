package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/models"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// writeWait is the window for one outbound write to complete
	writeWait = 10 * time.Second

	// pongWait is how long a connection may stay silent before it is
	// considered dead
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait
	pingPeriod = 54 * time.Second

	// maxInboundSize bounds one inbound frame
	maxInboundSize = 16 * 1024

	// sendBufferSize is the per-client outbound queue. A peer that lets it
	// fill up is dropped rather than allowed to stall the fan-out.
	sendBufferSize = 256
)

// Conn is the slice of *websocket.Conn the gateway uses. Narrowed to an
// interface so hub tests can run against an in-memory transport.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	Close() error
}

// Client is one authenticated live connection. Its lifecycle is
// Connecting -> Authenticated -> Active -> Closed: the upgrade handler
// performs the first transition, Hub.Register the second, and every
// disconnect path funnels through the hub's unregister handling.
type Client struct {
	userID   int
	username string
	role     models.Role

	conn Conn
	send chan []byte
	hub  *Hub

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an upgraded, verified connection. The claims come from the
// handshake token.
func NewClient(conn Conn, claims *auth.Claims, hub *Hub) *Client {
	conn.SetReadLimit(maxInboundSize)
	return &Client{
		userID:   claims.UserID,
		username: claims.Username,
		role:     claims.Role,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		hub:      hub,
	}
}

// enqueue queues an outbound payload without blocking. Returns false if the
// client is already closed or its buffer is full; a best-effort send to a
// dead peer is never an error.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once. Payloads already queued are
// still drained by the write pump before the close frame goes out, which is
// what lets the panic notice reach clients ahead of the disconnect.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump drives the connection's inbound state machine: one blocking
// receive loop per connection, messages handed off in arrival order so a
// single sender's messages broadcast in the order submitted.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Debug("websocket read error",
					zap.Int("userId", c.userID),
					zap.Error(err),
				)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("invalid event")
			continue
		}

		switch env.Type {
		case EventMessage:
			var payload MessagePayload
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				c.sendError("invalid message payload")
				continue
			}
			c.hub.handleInbound(c, &payload)
		default:
			c.sendError("unknown event type")
		}
	}
}

// writePump serializes all writes to the connection: queued events and
// keepalive pings. When the send channel closes it flushes what is queued,
// writes a close frame, and tears the transport down.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendError notifies only this connection; no broadcast, no state change
func (c *Client) sendError(message string) {
	payload, err := encodeEvent(EventError, ErrorPayload{Error: message})
	if err != nil {
		return
	}
	c.enqueue(payload)
}
