package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mmynk/centsai/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// UserIDKey is the context key for storing the authenticated user ID.
const UserIDKey contextKey = "user_id"

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserID extracts the authenticated user ID from the context.
// The second result is false for unauthenticated requests.
func GetUserID(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	return userID, ok && userID > 0
}

// TokenValidator resolves a bearer token to a user ID.
type TokenValidator interface {
	UserID(token string) (int64, error)
}

var _ TokenValidator = (*auth.JWTManager)(nil)

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// requests without authentication. A missing, malformed, expired or badly signed
// token leaves the request unauthenticated; handlers decide whether that is an error.
func OptionalAuth(tokens TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if ok {
				userID, err := tokens.UserID(token)
				if err == nil {
					r = r.WithContext(WithUserID(r.Context(), userID))
				} else {
					logger.Debug("Ignoring invalid bearer token", "path", r.URL.Path, "error", err)
				}
			}

			// Call the next handler (with or without user context)
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
