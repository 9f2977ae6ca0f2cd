package services

import "errors"

// Service-level errors. Handlers and the gateway translate these into HTTP
// statuses or per-connection error events with errors.Is.
var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords so login failures never leak which usernames exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmptyMessage rejects messages that are empty after trimming.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrUserExists signals a duplicate username or email on user creation.
	ErrUserExists = errors.New("username or email already in use")

	// ErrInvalidRole signals a role outside the known set.
	ErrInvalidRole = errors.New("invalid role")
)
