package auth

import (
	"context"
	"fmt"

	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// userKey is the context key for the authenticated user.
const userKey contextKey = "user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil and false if no user is present.
func GetUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok
}

// RequireUser extracts the authenticated user and returns an error if the
// request is unauthenticated.
func RequireUser(ctx context.Context) (*models.User, error) {
	user, ok := GetUser(ctx)
	if !ok || user == nil {
		return nil, fmt.Errorf("authentication required: no user in context")
	}
	return user, nil
}
