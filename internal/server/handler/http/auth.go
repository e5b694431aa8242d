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
	"github.com/atinyakov/secretshare/internal/models"
	"github.com/atinyakov/secretshare/internal/session"
)

// defaultScope is requested when the client does not name OAuth scopes.
const defaultScope = "read:user user:email"

// callbackPage is shown in the user's browser once the redirect flow is done.
const callbackPage = `<html><body><h1>Authentication Complete</h1><p>You can close this window and return to the CLI.</p></body></html>`

// AuthService defines the login operations required by the HTTP handlers.
type AuthService interface {
	// InitiateLogin creates a pending login session and the authorize URL to open.
	InitiateLogin(scope string) (sessionID, authURL string, err error)
	// HandleCallback finalizes a session from the OAuth redirect.
	HandleCallback(ctx context.Context, code, state string) error
	// PollLogin reports a session's status, consuming terminal sessions.
	PollLogin(sessionID string) (session.PollResult, error)
	// LoginWithPersonalToken validates a personal access token.
	LoginWithPersonalToken(ctx context.Context, token string) (models.TokenBundle, error)
}

// AuthHandler handles HTTP requests for the login lifecycle.
type AuthHandler struct {
	// AuthService performs the underlying login operations.
	AuthService AuthService
}

// Login handles POST /auth/login requests.
// It creates a login session and responds with the session id and the
// GitHub authorize URL the client must open in a browser.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = defaultScope
	}

	sessionID, authURL, err := h.AuthService.InitiateLogin(scope)
	if err != nil {
		http.Error(w, "failed to prepare login", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{
		"session_id": sessionID,
		"auth_url":   authURL,
	})
}

// Poll handles GET /auth/login/{sessionID} requests.
// A ready session yields the token bundle, a failed session yields its
// error message; both are deleted on first read. A pending session stays.
func (h *AuthHandler) Poll(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	result, err := h.AuthService.PollLogin(sessionID)
	if err != nil {
		http.Error(w, "login session not found or expired", http.StatusNotFound)
		return
	}

	switch result.Status {
	case session.StatusReady:
		writeJSON(w, map[string]any{"status": "ready", "token": result.Token})
	case session.StatusError:
		writeJSON(w, map[string]any{"status": "error", "message": result.Message})
	default:
		writeJSON(w, map[string]any{"status": "pending"})
	}
}

// Callback handles GET /auth/callback requests from the GitHub redirect.
// On success it renders a small HTML page telling the user to return to
// the CLI; the outcome itself is delivered to the polling client.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "code and state are required", http.StatusBadRequest)
		return
	}

	if err := h.AuthService.HandleCallback(r.Context(), code, state); err != nil {
		http.Error(w, err.Error(), callbackStatus(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(callbackPage))
}

// LoginTestRequest represents the JSON payload for personal-token login.
type LoginTestRequest struct {
	// Token is the GitHub personal access token to validate.
	Token string `json:"token"`
}

// LoginTest handles POST /auth/login-test requests.
// It validates a personal access token and responds with the same token
// bundle a completed OAuth login would produce.
func (h *AuthHandler) LoginTest(w http.ResponseWriter, r *http.Request) {
	var req LoginTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	bundle, err := h.AuthService.LoginWithPersonalToken(r.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrMissingCredential):
			http.Error(w, "github personal access token required", http.StatusBadRequest)
		case errors.Is(err, apperr.ErrInvalidCredential):
			http.Error(w, "invalid github access token", http.StatusUnauthorized)
		default:
			http.Error(w, "failed to verify github token", http.StatusBadGateway)
		}
		return
	}

	writeJSON(w, bundle)
}

// callbackStatus maps a callback failure to its HTTP status.
func callbackStatus(err error) int {
	switch {
	case errors.Is(err, apperr.ErrUpstreamUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrInvalidState),
		errors.Is(err, apperr.ErrSessionExpired),
		errors.Is(err, apperr.ErrProviderRejected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
