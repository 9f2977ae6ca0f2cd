package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Plexi09/chatroom/internal/auth"
	"github.com/Plexi09/chatroom/internal/models"
	"github.com/Plexi09/chatroom/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Create inserts a new user and fills in its generated id.
	Create(ctx context.Context, user *models.User) error
	// GetByUsername retrieves a user by username. Returns
	// repositories.ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// GetByID retrieves a user by id. Returns repositories.ErrNotFound if no
	// such user exists.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// List retrieves all users ordered by id.
	List(ctx context.Context) ([]models.User, error)
	// UpdateRole changes a user's role. Returns repositories.ErrNotFound if
	// no such user exists.
	UpdateRole(ctx context.Context, userID int, role models.Role) error
}

// SessionRepository is the interface that wraps methods for Session table data access
type SessionRepository interface {
	// Create inserts a session row for a fresh login and fills in its
	// generated id.
	Create(ctx context.Context, session *models.Session) error
	// DeleteByToken removes the session matching the token. Absence of a
	// matching row is not an error.
	DeleteByToken(ctx context.Context, token string) error
	// CountByUserID returns how many session rows a user currently holds.
	CountByUserID(ctx context.Context, userID int) (int, error)
}

// authService issues and revokes sessions
type authService struct {
	userRepo       UserRepository
	sessionRepo    SessionRepository
	tokenGenerator *auth.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	tokenGenerator *auth.TokenGenerator,
	logger *zap.Logger,
) *authService {
	return &authService{
		userRepo:       userRepo,
		sessionRepo:    sessionRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// dummyHash is compared against when the username does not exist, so the
// unknown-user path costs one bcrypt verification just like the known-user
// path and response timing does not reveal which usernames exist.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Login validates credentials, mints a session token, and records a session
// row. Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, string, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokenGenerator.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{UserID: user.ID, Token: token}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to record session: %w", err)
	}

	s.logger.Info("user logged in", zap.Int("userId", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

// Logout deletes the session row matching the token. Idempotent: a second
// logout with the same token succeeds, and one session's logout leaves a
// user's other concurrent sessions untouched.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
