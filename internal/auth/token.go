// Package auth handles session token generation, verification, and the
// middleware guarding HTTP endpoints and the websocket handshake.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Plexi09/chatroom/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Verification errors. ErrForbidden is returned by role checks only, never
// by Verify, so callers can distinguish "not logged in" from "logged in but
// unauthorized".
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrForbidden    = errors.New("forbidden")
)

// Claims is the decoded, verified payload of a session token
type Claims struct {
	UserID    int
	Username  string
	Role      models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenGenerator handles session token generation and verification
type TokenGenerator struct {
	secret      string
	tokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, tokenExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:      secret,
		tokenExpiry: tokenExpiry,
	}
}

// Generate mints a signed session token carrying the user's id, username and
// role. The role is baked in at issuance; role changes only take effect on
// the next login.
func (tg *TokenGenerator) Generate(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(user.Role),
		"iat":      now.Unix(),
		"exp":      now.Add(tg.tokenExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify validates the token's signature and expiry and returns its claims.
// It fails closed: any malformed or tampered token yields ErrInvalidToken,
// an expired one ErrExpiredToken.
func (tg *TokenGenerator) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	// JWT claims decode numbers as float64
	userID, ok := mapClaims["user_id"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	username, ok := mapClaims["username"].(string)
	if !ok {
		return nil, ErrInvalidToken
	}

	roleStr, ok := mapClaims["role"].(string)
	if !ok || !models.Role(roleStr).Valid() {
		return nil, ErrInvalidToken
	}

	iat, ok := mapClaims["iat"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	exp, ok := mapClaims["exp"].(float64)
	if !ok {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    int(userID),
		Username:  username,
		Role:      models.Role(roleStr),
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}

// RequireRole checks that the claims carry the required role. Pure function
// over claims; it never mutates state.
func RequireRole(claims *Claims, role models.Role) error {
	if claims == nil || claims.Role != role {
		return ErrForbidden
	}
	return nil
}
