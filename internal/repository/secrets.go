// Package repository provides PostgreSQL persistence for users, secrets
// and share grants.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/atinyakov/secretshare/internal/apperr"
	"github.com/atinyakov/secretshare/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint failures.
const uniqueViolation = "23505"

// PostgresSecretRepository implements secret and share persistence against
// a PostgreSQL database. Every mutating operation runs inside a single
// transaction so partial application is never observable.
type PostgresSecretRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresSecretRepository creates a new PostgresSecretRepository using
// the provided *sql.DB. db must be a valid connection to a PostgreSQL instance.
func NewPostgresSecretRepository(db *sql.DB) *PostgresSecretRepository {
	return &PostgresSecretRepository{DB: db}
}

// CreateSecret inserts a new secret for the owner, creating the owner row
// if it does not exist yet. Both writes share one transaction. Returns
// apperr.ErrConflict when the owner already has a secret with that key.
//
//	ctx:     context for cancellation and deadlines
//	ownerID: GitHub id of the owning user
//	key:     secret key, unique per owner
//	value:   secret value
func (r *PostgresSecretRepository) CreateSecret(ctx context.Context, ownerID, key, value string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (github_id) VALUES ($1) ON CONFLICT DO NOTHING
	`, ownerID); err != nil {
		return fmt.Errorf("ensure owner: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO secrets (owner_id, key, value) VALUES ($1, $2, $3)
	`, ownerID, key, value); err != nil {
		if isUniqueViolation(err) {
			return apperr.ErrConflict
		}
		return fmt.Errorf("insert secret: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetSecretForUser returns the secret with the given key visible to the
// caller: the caller's own secret first, otherwise any secret with that
// key shared to the caller. Returns apperr.ErrNotFound when neither
// exists, which deliberately hides whether the key exists at all.
func (r *PostgresSecretRepository) GetSecretForUser(ctx context.Context, callerID, key string) (*models.SecretView, error) {
	var view models.SecretView
	err := r.DB.QueryRowContext(ctx, `
		SELECT key, value, owner_id FROM secrets WHERE owner_id = $1 AND key = $2
	`, callerID, key).Scan(&view.Key, &view.Value, &view.OwnerID)
	if err == nil {
		return &view, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get owned secret: %w", err)
	}

	err = r.DB.QueryRowContext(ctx, `
		SELECT s.key, s.value, s.owner_id FROM secrets s
		JOIN shares sh ON sh.secret_id = s.id
		WHERE s.key = $1 AND sh.user_id = $2
		ORDER BY s.id
		LIMIT 1
	`, key, callerID).Scan(&view.Key, &view.Value, &view.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get shared secret: %w", err)
	}
	return &view, nil
}

// ListVisible returns secrets owned by the caller followed by secrets
// shared to the caller, each group ordered by key.
func (r *PostgresSecretRepository) ListVisible(ctx context.Context, callerID string) ([]models.SecretView, error) {
	owned, err := r.queryViews(ctx, `
		SELECT key, value, owner_id FROM secrets WHERE owner_id = $1 ORDER BY key
	`, callerID)
	if err != nil {
		return nil, fmt.Errorf("list owned: %w", err)
	}

	shared, err := r.queryViews(ctx, `
		SELECT s.key, s.value, s.owner_id FROM secrets s
		JOIN shares sh ON sh.secret_id = s.id
		WHERE sh.user_id = $1
		ORDER BY s.key
	`, callerID)
	if err != nil {
		return nil, fmt.Errorf("list shared: %w", err)
	}

	return append(owned, shared...), nil
}

// ShareSecret grants the target user read access to the owner's secret,
// creating the target user row if needed. Granting an existing share is
// a no-op. Returns apperr.ErrNotFound when the owner has no secret with
// that key.
func (r *PostgresSecretRepository) ShareSecret(ctx context.Context, ownerID, key, targetID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var secretID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM secrets WHERE owner_id = $1 AND key = $2
	`, ownerID, key).Scan(&secretID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find secret: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (github_id) VALUES ($1) ON CONFLICT DO NOTHING
	`, targetID); err != nil {
		return fmt.Errorf("ensure target user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO shares (secret_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING
	`, secretID, targetID); err != nil {
		return fmt.Errorf("insert share: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// DeleteSecret removes the owner's secret with the given key together
// with all its share grants, in one transaction. Returns
// apperr.ErrNotFound when the owner has no secret with that key; a
// grantee can never delete.
func (r *PostgresSecretRepository) DeleteSecret(ctx context.Context, ownerID, key string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var secretID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM secrets WHERE owner_id = $1 AND key = $2
	`, ownerID, key).Scan(&secretID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find secret: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM shares WHERE secret_id = $1
	`, secretID); err != nil {
		return fmt.Errorf("delete shares: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM secrets WHERE id = $1
	`, secretID); err != nil {
		return fmt.Errorf("delete secret: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresSecretRepository) queryViews(ctx context.Context, query string, args ...any) ([]models.SecretView, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.SecretView
	for rows.Next() {
		var v models.SecretView
		if err := rows.Scan(&v.Key, &v.Value, &v.OwnerID); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
