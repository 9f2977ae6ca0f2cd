package models

import "time"

// Session represents one login. A user may hold several concurrent sessions;
// each carries its own token and is deleted independently at logout.
type Session struct {
	ID         int       `json:"id"`
	UserID     int       `json:"userId"`
	Token      string    `json:"-"`
	LastActive time.Time `json:"lastActive"`
}
