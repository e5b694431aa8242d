// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/atinyakov/secretshare/internal/apperr"
)

type ctxKey string

const userKey ctxKey = "user"

// TokenVerifier validates a bearer token and returns the GitHub id of
// the user it belongs to.
type TokenVerifier interface {
	VerifyRequestToken(ctx context.Context, token string) (string, error)
}

// BearerAuth is a middleware that enforces bearer-token authentication.
//
// It extracts the token from the Authorization header, verifies it
// against GitHub and stores the resulting user id in the request
// context, so it can be used downstream as the authenticated user ID.
// Requests with a missing or malformed header are rejected with 401
// before any network call is made.
func BearerAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ParseBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			userID, err := verifier.VerifyRequestToken(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperr.ErrInvalidCredential) {
					http.Error(w, "invalid access token", http.StatusUnauthorized)
					return
				}
				http.Error(w, "failed to verify access token", http.StatusBadGateway)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// ParseBearerToken extracts the token from an Authorization header value.
// The scheme match is case-insensitive. Returns apperr.ErrMissingCredential
// when the header is absent, uses another scheme, or carries no token.
func ParseBearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.ErrMissingCredential
	}
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", apperr.ErrMissingCredential
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", apperr.ErrMissingCredential
	}
	return token, nil
}

// WithUserID stores the authenticated user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// GetUserIDFromContext extracts the authenticated user ID from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
