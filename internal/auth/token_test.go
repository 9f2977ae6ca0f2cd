package auth

import (
	"testing"
	"time"

	"github.com/Plexi09/chatroom/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenGenerator_RoundTrip(t *testing.T) {
	tg := NewTokenGenerator("test-secret", 24*time.Hour)

	user := &models.User{ID: 42, Username: "alice", Role: models.RoleModerator}

	token, err := tg.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tg.Verify(token)
	require.NoError(t, err)

	// Claims match the user exactly
	assert.Equal(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleModerator, claims.Role)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt, 5*time.Second)
}

func TestTokenGenerator_Verify(t *testing.T) {
	tg := NewTokenGenerator("test-secret", time.Hour)
	user := &models.User{ID: 1, Username: "alice", Role: models.RoleUser}

	tests := []struct {
		name        string
		token       func(t *testing.T) string
		expectedErr error
	}{
		{
			name: "expired token",
			token: func(t *testing.T) string {
				expired := NewTokenGenerator("test-secret", -time.Minute)
				token, err := expired.Generate(user)
				require.NoError(t, err)
				return token
			},
			expectedErr: ErrExpiredToken,
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other := NewTokenGenerator("other-secret", time.Hour)
				token, err := other.Generate(user)
				require.NoError(t, err)
				return token
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "malformed token",
			token: func(t *testing.T) string {
				return "not-a-token"
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "empty token",
			token: func(t *testing.T) string {
				return ""
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "unexpected signing method",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
					"user_id":  1,
					"username": "alice",
					"role":     "user",
					"iat":      time.Now().Unix(),
					"exp":      time.Now().Add(time.Hour).Unix(),
				})
				signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
				require.NoError(t, err)
				return signed
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "unknown role in payload",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"user_id":  1,
					"username": "alice",
					"role":     "superuser",
					"iat":      time.Now().Unix(),
					"exp":      time.Now().Add(time.Hour).Unix(),
				})
				signed, err := token.SignedString([]byte("test-secret"))
				require.NoError(t, err)
				return signed
			},
			expectedErr: ErrInvalidToken,
		},
		{
			name: "missing user id claim",
			token: func(t *testing.T) string {
				token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
					"username": "alice",
					"role":     "user",
					"iat":      time.Now().Unix(),
					"exp":      time.Now().Add(time.Hour).Unix(),
				})
				signed, err := token.SignedString([]byte("test-secret"))
				require.NoError(t, err)
				return signed
			},
			expectedErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := tg.Verify(tt.token(t))

			assert.Nil(t, claims)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name          string
		claims        *Claims
		role          models.Role
		expectedError bool
	}{
		{
			name:   "admin has admin role",
			claims: &Claims{UserID: 1, Role: models.RoleAdmin},
			role:   models.RoleAdmin,
		},
		{
			name:          "user lacks admin role",
			claims:        &Claims{UserID: 1, Role: models.RoleUser},
			role:          models.RoleAdmin,
			expectedError: true,
		},
		{
			name:          "moderator lacks admin role",
			claims:        &Claims{UserID: 1, Role: models.RoleModerator},
			role:          models.RoleAdmin,
			expectedError: true,
		},
		{
			name:          "nil claims",
			claims:        nil,
			role:          models.RoleUser,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := RequireRole(tt.claims, tt.role)

			if tt.expectedError {
				assert.ErrorIs(t, err, ErrForbidden)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
