// Package session holds the ephemeral login-session and CSRF-state stores
// that bridge the OAuth redirect flow with a polling client. All state is
// process-local; a restart invalidates every in-flight login.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/atinyakov/secretshare/internal/apperr"
	"github.com/atinyakov/secretshare/internal/models"
)

const (
	// SessionTTL is how long a login session lives from creation,
	// regardless of status.
	SessionTTL = 600 * time.Second
	// StateTTL is how long an unconsumed CSRF state token lives.
	StateTTL = 300 * time.Second
)

// Status is the lifecycle state of a login session.
type Status string

const (
	// StatusPending means the callback has not arrived yet.
	StatusPending Status = "pending"
	// StatusReady means the login succeeded and a token bundle is waiting.
	StatusReady Status = "ready"
	// StatusError means the login failed; a message is waiting.
	StatusError Status = "error"
)

// loginSession is one pending or completed login attempt.
type loginSession struct {
	createdAt   time.Time
	completedAt time.Time
	status      Status
	scope       string
	state       string
	token       *models.TokenBundle
	errMessage  string
}

// stateEntry maps a CSRF state token back to its login session.
type stateEntry struct {
	createdAt time.Time
	sessionID string
}

// PollResult is what a polling client sees for a session.
type PollResult struct {
	Status Status
	// Token is set when Status is StatusReady.
	Token *models.TokenBundle
	// Message is set when Status is StatusError.
	Message string
}

// Store keeps login sessions and CSRF state tokens in memory. All methods
// are safe for concurrent use; terminal sessions are consumed by exactly
// one poller. Expired entries are swept lazily at the start of Initiate,
// ValidateState and Poll rather than by a background timer.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*loginSession
	states   map[string]stateEntry

	// now is replaceable in tests.
	now func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*loginSession),
		states:   make(map[string]stateEntry),
		now:      time.Now,
	}
}

// Initiate registers a fresh pending login session and returns its id
// together with a single-use CSRF state token bound to it. Both values
// are unguessable: the session id is the capability that collects the
// token bundle, the state token guards the callback.
func (s *Store) Initiate(scope string) (sessionID, state string, err error) {
	state, err = newToken()
	if err != nil {
		return "", "", fmt.Errorf("generate state token: %w", err)
	}
	sessionID, err = newToken()
	if err != nil {
		return "", "", fmt.Errorf("generate session id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	s.sessions[sessionID] = &loginSession{
		createdAt: now,
		status:    StatusPending,
		scope:     scope,
		state:     state,
	}
	s.states[state] = stateEntry{createdAt: now, sessionID: sessionID}
	return sessionID, state, nil
}

// ValidateState consumes a CSRF state token and resolves it to its
// session id. The token is removed whether validation succeeds or not,
// so a replayed callback always fails. Returns apperr.ErrInvalidState
// for an unknown or expired token and apperr.ErrSessionExpired when the
// token is valid but its session has already been swept.
func (s *Store) ValidateState(state string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.states[state]
	delete(s.states, state)
	s.sweepLocked(now)

	if !ok || now.Sub(entry.createdAt) > StateTTL {
		return "", apperr.ErrInvalidState
	}
	if _, ok := s.sessions[entry.sessionID]; !ok {
		return "", apperr.ErrSessionExpired
	}
	return entry.sessionID, nil
}

// Complete marks a session ready and stores its token bundle. The
// transition is terminal; the bundle is handed out by the first Poll.
func (s *Store) Complete(sessionID string, bundle models.TokenBundle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return apperr.ErrSessionExpired
	}
	sess.status = StatusReady
	sess.completedAt = s.now()
	sess.token = &bundle
	return nil
}

// Fail marks a session failed with a human-readable message. The session
// is kept so the polling client can observe the failure; it is deleted
// on poll or by the sweep. A missing session is ignored.
func (s *Store) Fail(sessionID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	sess.status = StatusError
	sess.errMessage = message
	sess.completedAt = s.now()
}

// Poll reports the state of a login session. A terminal session is
// consumed: the first poll after ready/error returns the outcome and
// deletes the session, a second poll gets apperr.ErrNotFound. A pending
// session is left in place.
func (s *Store) Poll(sessionID string) (PollResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked(s.now())

	sess, ok := s.sessions[sessionID]
	if !ok {
		return PollResult{}, apperr.ErrNotFound
	}

	switch sess.status {
	case StatusReady:
		delete(s.sessions, sessionID)
		return PollResult{Status: StatusReady, Token: sess.token}, nil
	case StatusError:
		delete(s.sessions, sessionID)
		message := sess.errMessage
		if message == "" {
			message = "login failed"
		}
		return PollResult{Status: StatusError, Message: message}, nil
	default:
		return PollResult{Status: StatusPending}, nil
	}
}

// Len reports the number of live sessions. Used by tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// sweepLocked drops sessions and state tokens past their TTLs.
// Callers must hold s.mu.
func (s *Store) sweepLocked(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.createdAt) > SessionTTL {
			delete(s.sessions, id)
		}
	}
	for state, entry := range s.states {
		if now.Sub(entry.createdAt) > StateTTL {
			delete(s.states, state)
		}
	}
}

// newToken returns 256 bits of base64url-encoded randomness, used for
// both session ids and CSRF state tokens.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
