// Package repository provides PostgreSQL persistence for users, secrets
// and share grants.
package repository

import (
	"context"
	"database/sql"
)

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given
// database connection. db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetOrCreate ensures a user row exists for the given GitHub id.
// The insert is a no-op when the user already exists.
func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, githubID string) error {
	_, err := r.DB.ExecContext(
		ctx,
		`INSERT INTO users (github_id) VALUES ($1) ON CONFLICT DO NOTHING`,
		githubID,
	)
	return err
}
