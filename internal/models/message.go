package models

import "time"

// Message represents a chat message. Immutable once created; ordering is by
// creation time with the auto-increment id breaking ties.
type Message struct {
	ID               int       `json:"id"`
	UserID           int       `json:"userId"`
	Username         string    `json:"username"`
	Content          string    `json:"content"`
	FormattedContent string    `json:"formattedContent"`
	CreatedAt        time.Time `json:"created_at"`
}
