package models

import "time"

// Security log event types
const (
	EventPanicButton = "panic_button"
	EventUserCreated = "user_created"
	EventRoleChanged = "role_changed"
)

// SecurityLogEntry is an append-only record of an administrative event.
// UserID is nullable because some events are not attributable to a user.
type SecurityLogEntry struct {
	ID          int       `json:"id"`
	EventType   string    `json:"eventType"`
	Description string    `json:"description"`
	UserID      *int      `json:"userId"`
	Username    string    `json:"username,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
