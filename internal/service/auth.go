// Package service provides the access-control and login business logic,
// delegating persistence to repositories.
package service

import (
	"context"
	"fmt"

	"github.com/atinyakov/secretshare/internal/apperr"
	"github.com/atinyakov/secretshare/internal/github"
	"github.com/atinyakov/secretshare/internal/models"
	"github.com/atinyakov/secretshare/internal/session"
)

// IdentityProvider defines the GitHub operations required by the auth service.
type IdentityProvider interface {
	// AuthorizeURL builds the browser URL that starts the OAuth flow.
	AuthorizeURL(scope, state string) string
	// ExchangeCode trades an authorization code for an access token.
	ExchangeCode(ctx context.Context, code string) (models.TokenBundle, error)
	// VerifyToken validates an access token and returns the identity behind it.
	VerifyToken(ctx context.Context, token string, kind github.TokenKind) (models.Identity, error)
}

// UserRepository defines the persistence operations required by the auth service.
type UserRepository interface {
	// GetOrCreate ensures a user row exists for the given GitHub id.
	GetOrCreate(ctx context.Context, githubID string) error
}

// AuthService drives the login session lifecycle: it issues sessions,
// finalizes them from the OAuth callback and answers polls. It also
// verifies bearer tokens on behalf of the request middleware.
type AuthService struct {
	provider IdentityProvider
	sessions *session.Store
	users    UserRepository
}

// NewAuthService constructs an AuthService from its collaborators.
func NewAuthService(provider IdentityProvider, sessions *session.Store, users UserRepository) *AuthService {
	return &AuthService{provider: provider, sessions: sessions, users: users}
}

// InitiateLogin creates a pending login session and returns its id
// together with the GitHub authorize URL bound to it.
func (s *AuthService) InitiateLogin(scope string) (sessionID, authURL string, err error) {
	sessionID, state, err := s.sessions.Initiate(scope)
	if err != nil {
		return "", "", fmt.Errorf("initiate login: %w", err)
	}
	return sessionID, s.provider.AuthorizeURL(scope, state), nil
}

// HandleCallback finalizes a login session from the OAuth redirect. The
// state token is consumed no matter the outcome. Any failure after state
// validation is recorded on the session before being returned, so the
// polling client observes an error status rather than silence.
func (s *AuthService) HandleCallback(ctx context.Context, code, state string) error {
	sessionID, err := s.sessions.ValidateState(state)
	if err != nil {
		return err
	}

	bundle, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		s.sessions.Fail(sessionID, err.Error())
		return err
	}

	identity, err := s.provider.VerifyToken(ctx, bundle.AccessToken, github.TokenOAuth)
	if err != nil {
		s.sessions.Fail(sessionID, err.Error())
		return err
	}

	if err := s.users.GetOrCreate(ctx, identity.ID); err != nil {
		s.sessions.Fail(sessionID, "failed to persist user record")
		return fmt.Errorf("get or create user: %w", err)
	}

	bundle.User = identity
	return s.sessions.Complete(sessionID, bundle)
}

// PollLogin reports the status of a login session. Terminal sessions are
// consumed by the first successful poll.
func (s *AuthService) PollLogin(sessionID string) (session.PollResult, error) {
	return s.sessions.Poll(sessionID)
}

// LoginWithPersonalToken validates a personal access token and returns a
// token bundle equivalent to a completed OAuth login.
func (s *AuthService) LoginWithPersonalToken(ctx context.Context, token string) (models.TokenBundle, error) {
	if token == "" {
		return models.TokenBundle{}, apperr.ErrMissingCredential
	}
	identity, err := s.provider.VerifyToken(ctx, token, github.TokenPersonal)
	if err != nil {
		return models.TokenBundle{}, err
	}
	if err := s.users.GetOrCreate(ctx, identity.ID); err != nil {
		return models.TokenBundle{}, fmt.Errorf("get or create user: %w", err)
	}
	return models.TokenBundle{
		AccessToken: token,
		TokenType:   "bearer",
		Scope:       "",
		User:        identity,
	}, nil
}

// VerifyRequestToken validates the bearer token of an API request and
// returns the GitHub id of its user, creating the user row on first use.
func (s *AuthService) VerifyRequestToken(ctx context.Context, token string) (string, error) {
	identity, err := s.provider.VerifyToken(ctx, token, github.TokenOAuth)
	if err != nil {
		return "", err
	}
	if err := s.users.GetOrCreate(ctx, identity.ID); err != nil {
		return "", fmt.Errorf("get or create user: %w", err)
	}
	return identity.ID, nil
}
