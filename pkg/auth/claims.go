// Package auth extracts the calling user's identity and role from bearer
// tokens issued by the host application. The engine does not design an
// authentication protocol of its own; it trusts tokens signed with the
// shared HMAC secret.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/qualitrack/qualitrack-engine/pkg/apperrors"
	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// Claims is the token payload the host application issues.
type Claims struct {
	jwt.RegisteredClaims
	Role     string `json:"role,omitempty"`
	Username string `json:"username,omitempty"`
}

// ParseToken validates a token string against the shared secret and returns
// its claims.
func ParseToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ToUser converts validated claims into the user identity the services
// consume.
func (c *Claims) ToUser() (*models.User, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid subject %q: %w", c.Subject, err)
	}

	role := models.Role(c.Role)
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("role %q: %w", c.Role, apperrors.ErrInvalidRole)
	}

	return &models.User{
		ID:       id,
		Username: c.Username,
		Role:     role,
	}, nil
}
