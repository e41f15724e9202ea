package auth

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/qualitrack/qualitrack-engine/pkg/models"
)

// MiddlewareConfig controls how the auth middleware resolves identities.
type MiddlewareConfig struct {
	// EnableVerification requires a valid bearer token. When false the
	// identity is read from X-User-ID / X-User-Role headers, which is only
	// acceptable behind a trusted gateway or in local development.
	EnableVerification bool
	JWTSecret          string
}

// Middleware resolves the calling user and injects it into the request
// context. Requests without a resolvable identity get 401.
func Middleware(cfg MiddlewareConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	log := logger.Named("auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, cfg)
			if err != nil {
				log.Debug("Authentication failed", zap.Error(err))
				http.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func resolveUser(r *http.Request, cfg MiddlewareConfig) (*models.User, error) {
	if cfg.EnableVerification {
		header := r.Header.Get("Authorization")
		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header || tokenString == "" {
			return nil, errMissingToken
		}

		claims, err := ParseToken(tokenString, cfg.JWTSecret)
		if err != nil {
			return nil, err
		}
		return claims.ToUser()
	}

	return userFromHeaders(r)
}

var errMissingToken = &headerError{"missing bearer token"}

func userFromHeaders(r *http.Request) (*models.User, error) {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return nil, &headerError{"missing or invalid X-User-ID header"}
	}

	role := models.Role(r.Header.Get("X-User-Role"))
	if !models.IsValidRole(role) {
		return nil, &headerError{"missing or invalid X-User-Role header"}
	}

	return &models.User{
		ID:       id,
		Username: r.Header.Get("X-User-Name"),
		Role:     role,
	}, nil
}

type headerError struct{ msg string }

func (e *headerError) Error() string { return e.msg }
