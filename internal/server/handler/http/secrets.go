// Package http provides HTTP handlers for the login flow and secret
// management endpoints.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atinyakov/secretshare/internal/apperr"
	"github.com/atinyakov/secretshare/internal/middleware"
	"github.com/atinyakov/secretshare/internal/models"
)

// SecretService defines the secret operations required by the HTTP handlers.
// All methods take the authenticated caller's GitHub id.
type SecretService interface {
	// Put stores a new secret; apperr.ErrConflict if the key exists.
	Put(ctx context.Context, ownerID, key, value string) error
	// Get returns the secret visible to the caller, or apperr.ErrNotFound.
	Get(ctx context.Context, callerID, key string) (*models.SecretView, error)
	// List returns every secret the caller can read.
	List(ctx context.Context, callerID string) ([]models.SecretView, error)
	// Share grants read access; apperr.ErrNotFound if the caller owns no such key.
	Share(ctx context.Context, ownerID, key, targetID string) error
	// Delete removes the caller's secret; apperr.ErrNotFound if absent.
	Delete(ctx context.Context, ownerID, key string) error
}

// SecretsHandler handles HTTP requests for secret management.
// All routes sit behind the bearer-auth middleware, which places the
// caller's user id in the request context.
type SecretsHandler struct {
	SecretService SecretService
}

// SecretRequest represents the JSON payload for creating a secret.
type SecretRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ShareRequest represents the JSON payload for sharing a secret.
type ShareRequest struct {
	// GithubID is the GitHub id of the user to grant read access to.
	GithubID string `json:"github_id"`
}

// Create handles POST /secrets requests.
// Reusing a key is rejected with 409; the stored value stays unchanged.
func (h *SecretsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req SecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Key == "" || req.Value == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.SecretService.Put(r.Context(), userID, req.Key, req.Value); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			http.Error(w, "key exists for this owner", http.StatusConflict)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"ok": true})
}

// List handles GET /secrets requests. The response lists the caller's
// own secrets followed by secrets shared to them, each annotated with
// its actual owner.
func (h *SecretsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	items, err := h.SecretService.List(r.Context(), userID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.SecretView{}
	}

	writeJSON(w, map[string]any{"items": items})
}

// Get handles GET /secrets/{key} requests. Keys the caller cannot read
// are indistinguishable from keys that do not exist.
func (h *SecretsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	key := chi.URLParam(r, "key")

	view, err := h.SecretService.Get(r.Context(), userID, key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "secret not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, view)
}

// Share handles POST /secrets/{key}/share requests. Only the owner may
// share; repeating a grant is a success without a duplicate.
func (h *SecretsHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	key := chi.URLParam(r, "key")

	var req ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GithubID == "" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	if err := h.SecretService.Share(r.Context(), userID, key, req.GithubID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "secret not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"ok": true})
}

// Delete handles DELETE /secrets/{key} requests. Deletion cascades to
// all share grants of the secret.
func (h *SecretsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	key := chi.URLParam(r, "key")

	if err := h.SecretService.Delete(r.Context(), userID, key); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			http.Error(w, "secret not found", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]bool{"ok": true})
}
