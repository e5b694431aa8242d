package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func setupUserMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresUserRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestGetOrCreate_Success(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (github_id) VALUES ($1) ON CONFLICT DO NOTHING`)).
		WithArgs("42").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.GetOrCreate(context.Background(), "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetOrCreate_AlreadyExists(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	// ON CONFLICT DO NOTHING: zero rows affected is still success.
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (github_id) VALUES ($1) ON CONFLICT DO NOTHING`)).
		WithArgs("42").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.GetOrCreate(context.Background(), "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetOrCreate_Error(t *testing.T) {
	repo, mock, cleanup := setupUserMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (github_id) VALUES ($1) ON CONFLICT DO NOTHING`)).
		WithArgs("42").
		WillReturnError(errors.New("insert failed"))

	if err := repo.GetOrCreate(context.Background(), "42"); err == nil {
		t.Errorf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
