// Package apperr defines the sentinel errors shared across the service,
// repository and transport layers. Callers should use errors.Is to match
// these values.
package apperr

import "errors"

var (
	// Credential errors.
	ErrInvalidCredential = errors.New("invalid credential")
	ErrMissingCredential = errors.New("missing bearer token")

	// Identity-provider errors.
	ErrUpstreamUnavailable = errors.New("identity provider unavailable")
	ErrProviderRejected    = errors.New("identity provider rejected the request")

	// Login-session errors.
	ErrInvalidState   = errors.New("invalid or expired oauth state")
	ErrSessionExpired = errors.New("login session not found or expired")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("key exists for this owner")
)
