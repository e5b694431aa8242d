// Package service provides the access-control and login business logic,
// delegating persistence to repositories.
package service

import (
	"context"

	"github.com/atinyakov/secretshare/internal/models"
)

// SecretRepository defines the persistence operations required by the
// secret service. Implementations must apply each operation atomically.
type SecretRepository interface {
	// CreateSecret stores a new secret, creating the owner user if absent.
	// Returns apperr.ErrConflict if the owner already has the key.
	CreateSecret(ctx context.Context, ownerID, key, value string) error
	// GetSecretForUser returns the secret visible to the caller under the
	// given key, or apperr.ErrNotFound.
	GetSecretForUser(ctx context.Context, callerID, key string) (*models.SecretView, error)
	// ListVisible returns the caller's owned secrets followed by secrets
	// shared to the caller.
	ListVisible(ctx context.Context, callerID string) ([]models.SecretView, error)
	// ShareSecret grants the target read access to the owner's secret.
	// Idempotent; returns apperr.ErrNotFound if the owner has no such key.
	ShareSecret(ctx context.Context, ownerID, key, targetID string) error
	// DeleteSecret removes the owner's secret and all its grants.
	// Returns apperr.ErrNotFound if the owner has no such key.
	DeleteSecret(ctx context.Context, ownerID, key string) error
}

// SecretService enforces the owner/grantee access rules over a
// SecretRepository. Callers must already be authenticated; every method
// takes the verified GitHub id of the caller.
type SecretService struct {
	// repo performs the data-layer operations.
	repo SecretRepository
}

// NewSecretService constructs a new SecretService using the provided repository.
func NewSecretService(repo SecretRepository) *SecretService {
	return &SecretService{repo: repo}
}

// Put stores a new secret owned by the caller. A key may not be reused:
// storing an existing key fails with apperr.ErrConflict and leaves the
// stored value untouched.
func (s *SecretService) Put(ctx context.Context, ownerID, key, value string) error {
	return s.repo.CreateSecret(ctx, ownerID, key, value)
}

// Get returns the secret visible to the caller under the given key.
// Missing keys and keys owned by others who have not shared them are
// both reported as apperr.ErrNotFound.
func (s *SecretService) Get(ctx context.Context, callerID, key string) (*models.SecretView, error) {
	return s.repo.GetSecretForUser(ctx, callerID, key)
}

// List returns every secret the caller can read, annotated with its
// actual owner. Owned secrets come before shared ones.
func (s *SecretService) List(ctx context.Context, callerID string) ([]models.SecretView, error) {
	return s.repo.ListVisible(ctx, callerID)
}

// Share grants the target user read access to the caller's secret.
// Only the literal owner may share; sharing the same secret twice with
// the same target is a no-op.
func (s *SecretService) Share(ctx context.Context, ownerID, key, targetID string) error {
	return s.repo.ShareSecret(ctx, ownerID, key, targetID)
}

// Delete removes the caller's secret and cascades to all its grants.
func (s *SecretService) Delete(ctx context.Context, ownerID, key string) error {
	return s.repo.DeleteSecret(ctx, ownerID, key)
}
