package service_test

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/atinyakov/secretshare/internal/apperr"
	"github.com/atinyakov/secretshare/internal/models"
	"github.com/atinyakov/secretshare/internal/service"
)

type mockSecretRepo struct {
	CreateSecretFunc     func(ctx context.Context, ownerID, key, value string) error
	GetSecretForUserFunc func(ctx context.Context, callerID, key string) (*models.SecretView, error)
	ListVisibleFunc      func(ctx context.Context, callerID string) ([]models.SecretView, error)
	ShareSecretFunc      func(ctx context.Context, ownerID, key, targetID string) error
	DeleteSecretFunc     func(ctx context.Context, ownerID, key string) error
}

func (m *mockSecretRepo) CreateSecret(ctx context.Context, ownerID, key, value string) error {
	return m.CreateSecretFunc(ctx, ownerID, key, value)
}
func (m *mockSecretRepo) GetSecretForUser(ctx context.Context, callerID, key string) (*models.SecretView, error) {
	return m.GetSecretForUserFunc(ctx, callerID, key)
}
func (m *mockSecretRepo) ListVisible(ctx context.Context, callerID string) ([]models.SecretView, error) {
	return m.ListVisibleFunc(ctx, callerID)
}
func (m *mockSecretRepo) ShareSecret(ctx context.Context, ownerID, key, targetID string) error {
	return m.ShareSecretFunc(ctx, ownerID, key, targetID)
}
func (m *mockSecretRepo) DeleteSecret(ctx context.Context, ownerID, key string) error {
	return m.DeleteSecretFunc(ctx, ownerID, key)
}

func TestPut_Conflict(t *testing.T) {
	repo := &mockSecretRepo{
		CreateSecretFunc: func(context.Context, string, string, string) error {
			return apperr.ErrConflict
		},
	}
	svc := service.NewSecretService(repo)
	if err := svc.Put(context.Background(), "alice", "db", "v2"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("Put error = %v; want ErrConflict", err)
	}
}

func TestPut_PassesArguments(t *testing.T) {
	var gotOwner, gotKey, gotValue string
	repo := &mockSecretRepo{
		CreateSecretFunc: func(_ context.Context, ownerID, key, value string) error {
			gotOwner, gotKey, gotValue = ownerID, key, value
			return nil
		},
	}
	svc := service.NewSecretService(repo)
	if err := svc.Put(context.Background(), "alice", "db", "s3cr3t"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotOwner != "alice" || gotKey != "db" || gotValue != "s3cr3t" {
		t.Errorf("repo got (%q, %q, %q)", gotOwner, gotKey, gotValue)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := &mockSecretRepo{
		GetSecretForUserFunc: func(context.Context, string, string) (*models.SecretView, error) {
			return nil, apperr.ErrNotFound
		},
	}
	svc := service.NewSecretService(repo)
	if _, err := svc.Get(context.Background(), "mallory", "db"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get error = %v; want ErrNotFound", err)
	}
}

func TestGet_SharedKeepsOwner(t *testing.T) {
	want := &models.SecretView{Key: "db", Value: "s3cr3t", OwnerID: "alice"}
	repo := &mockSecretRepo{
		GetSecretForUserFunc: func(context.Context, string, string) (*models.SecretView, error) {
			return want, nil
		},
	}
	svc := service.NewSecretService(repo)
	got, err := svc.Get(context.Background(), "bob", "db")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Get = %+v; want %+v", got, want)
	}
}

func TestList(t *testing.T) {
	want := []models.SecretView{
		{Key: "api", Value: "k1", OwnerID: "bob"},
		{Key: "prod", Value: "k3", OwnerID: "alice"},
	}
	repo := &mockSecretRepo{
		ListVisibleFunc: func(context.Context, string) ([]models.SecretView, error) {
			return want, nil
		},
	}
	svc := service.NewSecretService(repo)
	got, err := svc.List(context.Background(), "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("List = %+v; want %+v", got, want)
	}
}

func TestShare_NotFound(t *testing.T) {
	repo := &mockSecretRepo{
		ShareSecretFunc: func(context.Context, string, string, string) error {
			return apperr.ErrNotFound
		},
	}
	svc := service.NewSecretService(repo)
	if err := svc.Share(context.Background(), "alice", "missing", "bob"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Share error = %v; want ErrNotFound", err)
	}
}

func TestDelete_Error(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockSecretRepo{
		DeleteSecretFunc: func(context.Context, string, string) error {
			return wantErr
		},
	}
	svc := service.NewSecretService(repo)
	if err := svc.Delete(context.Background(), "alice", "db"); !errors.Is(err, wantErr) {
		t.Fatalf("Delete error = %v; want %v", err, wantErr)
	}
}
