package models

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserRequest is the body of POST /api/admin/users
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// UpdateUserRequest is the body of PUT /api/admin/users/{id}.
// Role changes take effect on the next token issuance, not on live
// connections.
type UpdateUserRequest struct {
	Role Role `json:"role"`
}
