package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gorefurbish/backend/internal/config"
	"github.com/gorefurbish/backend/internal/models"
)

// AuthClaims are the claims carried by a signed-in session token.
type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a user ID.
func (c *AuthClaims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return uint(id), nil
}

// TokenService issues and validates HS256 auth tokens
type TokenService struct {
	secret []byte
	expiry time.Duration
}

// NewTokenService creates a new token service instance
func NewTokenService(cfg config.JWT) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("missing JWT secret in configuration")
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		expiry: cfg.Expiry,
	}, nil
}

// Expiry returns the configured token lifetime.
func (t *TokenService) Expiry() time.Duration {
	return t.expiry
}

// Generate signs a token for the user
func (t *TokenService) Generate(user *models.User) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates a token string and returns its claims
func (t *TokenService) Parse(tokenString string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
