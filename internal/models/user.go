package models

// Role is the authorization level of a user
type Role string

// User roles
const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// User represents a user in the system
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // Never serialize password hash
	Role         Role   `json:"role"`
}

// PublicUser is the user shape exposed to clients (login response, presence list)
type PublicUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Public returns the client-facing view of the user
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Role: u.Role}
}

// UserDetail is the admin view of one account with its live session count
type UserDetail struct {
	User           PublicUser `json:"user"`
	ActiveSessions int        `json:"activeSessions"`
}
