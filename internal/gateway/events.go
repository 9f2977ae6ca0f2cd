package gateway

import (
	"encoding/json"
	"fmt"
)

// Outbound event names. "panic_activated" is emitted through NotifyAll by
// the panic service.
const (
	EventMessage     = "message"
	EventUsersUpdate = "users_update"
	EventError       = "error"
)

// Envelope is the JSON frame exchanged over the websocket in both
// directions: {"type": "...", "data": ...}.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MessagePayload is the inbound "message" event body. The server assigns
// id, username, and timestamp.
type MessagePayload struct {
	Content          string `json:"content"`
	FormattedContent string `json:"formattedContent"`
}

// ErrorPayload is sent to the originating connection only
type ErrorPayload struct {
	Error string `json:"error"`
}

// encodeEvent marshals an outbound envelope
func encodeEvent(eventType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	payload, err := json.Marshal(Envelope{Type: eventType, Data: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s envelope: %w", eventType, err)
	}
	return payload, nil
}
