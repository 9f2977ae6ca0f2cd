// Package gateway owns all live websocket connections: it authenticates
// hand-offs from the upgrade handler, tracks presence, relays inbound
// message events through the message service, and fans outbound events out
// to every registered connection.
package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Plexi09/chatroom/internal/models"
	"github.com/Plexi09/chatroom/internal/services"
	"go.uber.org/zap"
)

// submitTimeout bounds one message persistence write
const submitTimeout = 5 * time.Second

// MessageService is the slice of the message service the hub needs
type MessageService interface {
	// Submit validates and persists a message and returns the canonical
	// broadcast value.
	Submit(ctx context.Context, userID int, username, content, formattedContent string) (*models.Message, error)
}

// Hub coordinates every connection lifecycle through one run loop. Register,
// unregister, and broadcast all pass through unbuffered channels into that
// loop, so a broadcast's target set can never interleave with a membership
// change: a presence update happens-before any message broadcast that
// depends on the new membership.
type Hub struct {
	registry *Registry
	messages MessageService
	logger   *zap.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	closeAll   chan chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewHub creates a hub around the given registry and message service
func NewHub(registry *Registry, messages MessageService, logger *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		registry:   registry,
		messages:   messages,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		closeAll:   make(chan chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Registry exposes the presence registry
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Run is the hub's event loop. It must run in its own goroutine and owns
// every registry mutation and fan-out.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.disconnectAll()
			return

		case c := <-h.register:
			h.registry.Add(c)
			h.logger.Info("client connected",
				zap.Int("userId", c.userID),
				zap.String("username", c.username),
				zap.Int("online", h.registry.Len()),
			)

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				c.writePump()
			}()
			go func() {
				defer h.wg.Done()
				c.readPump()
			}()

			h.broadcastPresence()

		case c := <-h.unregister:
			removed := h.registry.Remove(c)
			c.shutdown()
			if removed {
				h.logger.Info("client disconnected",
					zap.Int("userId", c.userID),
					zap.String("username", c.username),
					zap.Int("online", h.registry.Len()),
				)
				h.broadcastPresence()
			}

		case payload := <-h.broadcast:
			if h.fanOut(payload) > 0 {
				h.broadcastPresence()
			}

		case ack := <-h.closeAll:
			h.disconnectAll()
			close(ack)
		}
	}
}

// Register hands a verified connection to the run loop. The registration and
// the resulting presence broadcast happen exactly once per connection.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		c.conn.Close()
	}
}

// NotifyAll sends one event to every connection registered at the moment the
// run loop processes it. Returns once the loop has accepted the event, so a
// caller that then requests DisconnectAll is guaranteed the notice was
// queued to every peer first.
func (h *Hub) NotifyAll(eventType string, data any) {
	payload, err := encodeEvent(eventType, data)
	if err != nil {
		h.logger.Error("failed to encode broadcast event", zap.String("type", eventType), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.ctx.Done():
	}
}

// DisconnectAll force-closes every open connection through the normal
// disconnect path and returns once the registry is empty.
func (h *Hub) DisconnectAll() {
	ack := make(chan struct{})
	select {
	case h.closeAll <- ack:
		<-ack
	case <-h.ctx.Done():
	}
}

// Shutdown stops the run loop, closes every connection, and waits for the
// per-connection goroutines to finish or the timeout to pass.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()
	<-h.done

	finished := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-time.After(timeout):
		return context.DeadlineExceeded
	}
}

// handleInbound runs on the connection's read goroutine: persistence first,
// then broadcast. A failed submit notifies only the origin; nothing is
// broadcast and no state changes.
func (h *Hub) handleInbound(c *Client, payload *MessagePayload) {
	ctx, cancel := context.WithTimeout(h.ctx, submitTimeout)
	defer cancel()

	message, err := h.messages.Submit(ctx, c.userID, c.username, payload.Content, payload.FormattedContent)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			c.sendError("message cannot be empty")
			return
		}
		h.logger.Error("failed to submit message", zap.Int("userId", c.userID), zap.Error(err))
		c.sendError("failed to send message")
		return
	}

	h.NotifyAll(EventMessage, message)
}

// fanOut delivers one payload to every registered connection. Delivery
// failures are isolated per target: a slow or dead peer is dropped from the
// registry without aborting delivery to the others. Returns how many peers
// were dropped.
func (h *Hub) fanOut(payload []byte) int {
	targets := h.registry.Clients()

	dropped := 0
	for _, c := range targets {
		if c.enqueue(payload) {
			continue
		}
		if h.registry.Remove(c) {
			dropped++
			h.logger.Warn("dropping unresponsive client",
				zap.Int("userId", c.userID),
				zap.String("username", c.username),
			)
		}
		c.shutdown()
	}
	return dropped
}

// broadcastPresence fans the current presence snapshot out to all active
// connections, including any newcomer, so presence lists stay globally
// consistent at every membership change.
func (h *Hub) broadcastPresence() {
	for {
		payload, err := encodeEvent(EventUsersUpdate, h.registry.Snapshot())
		if err != nil {
			h.logger.Error("failed to encode presence update", zap.Error(err))
			return
		}
		// Dropping a peer mid-update shrinks the membership, so fan the new
		// snapshot out again until a pass completes cleanly.
		if h.fanOut(payload) == 0 {
			return
		}
	}
}

// disconnectAll drives every connection through the normal remove-and-close
// transition rather than bulk-clearing the registry, keeping the registry
// consistent with open connections at every step. Queued payloads (panic
// notices included) are flushed by each write pump before its close frame.
func (h *Hub) disconnectAll() {
	clients := h.registry.Clients()
	for _, c := range clients {
		h.registry.Remove(c)
		c.shutdown()
	}
	if len(clients) > 0 {
		h.logger.Info("disconnected all clients", zap.Int("count", len(clients)))
	}
}
