package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Plexi09/chatroom/internal/models"
	"github.com/Plexi09/chatroom/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// adminService implements user management and audit inspection
type adminService struct {
	userRepo        UserRepository
	sessionRepo     SessionRepository
	securityLogRepo SecurityLogRepository
	logger          *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	securityLogRepo SecurityLogRepository,
	logger *zap.Logger,
) *adminService {
	return &adminService{
		userRepo:        userRepo,
		sessionRepo:     sessionRepo,
		securityLogRepo: securityLogRepo,
		logger:          logger,
	}
}

// CreateUser creates an account with a hashed password. Duplicate usernames
// or emails surface as ErrUserExists.
func (s *adminService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(passwordHash),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// MySQL reports unique-key violations as error 1062
		if strings.Contains(err.Error(), "1062") || strings.Contains(err.Error(), "Duplicate entry") {
			return nil, ErrUserExists
		}
		return nil, err
	}

	s.audit(ctx, models.EventUserCreated, fmt.Sprintf("User %q created with role %s", user.Username, user.Role), user.ID)

	s.logger.Info("user created", zap.Int("userId", user.ID), zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateUserRole changes a user's role. The change is reflected on next
// token issuance, not retroactively on live connections.
func (s *adminService) UpdateUserRole(ctx context.Context, userID int, role models.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to update role: %w", err)
	}

	s.audit(ctx, models.EventRoleChanged, fmt.Sprintf("User %d role changed to %s", userID, role), userID)

	s.logger.Info("user role updated", zap.Int("userId", userID), zap.String("role", string(role)))
	return nil
}

// audit records an administrative event. A failed audit write is logged but
// never fails the operation it describes.
func (s *adminService) audit(ctx context.Context, eventType, description string, userID int) {
	entry := &models.SecurityLogEntry{
		EventType:   eventType,
		Description: description,
		UserID:      &userID,
	}
	if err := s.securityLogRepo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to write audit entry", zap.String("eventType", eventType), zap.Error(err))
	}
}

// ListUsers returns all accounts
func (s *adminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

// GetUser returns one account together with its live session count.
// Returns repositories.ErrNotFound if no such user exists.
func (s *adminService) GetUser(ctx context.Context, userID int) (*models.User, int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, 0, err
		}
		return nil, 0, fmt.Errorf("failed to load user: %w", err)
	}

	sessions, err := s.sessionRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return user, sessions, nil
}

// SecurityLogs returns the most recent audit entries, newest first
func (s *adminService) SecurityLogs(ctx context.Context, limit int) ([]models.SecurityLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.securityLogRepo.ListRecent(ctx, limit)
}
