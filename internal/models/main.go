// Package models defines the core data structures for users, secrets and shares.
package models

import "time"

// User represents an application user identified by their GitHub account.
type User struct {
	// GithubID is the immutable GitHub user id, used as the primary key.
	GithubID string
	// CreatedAt is the time the user row was first created.
	CreatedAt time.Time
}

// Secret is a key/value pair owned by exactly one user.
type Secret struct {
	// ID is the numeric identity assigned by the database.
	ID int64
	// OwnerID is the GitHub id of the owning user.
	OwnerID string
	// Key is the name the secret is looked up by, unique per owner.
	Key string
	// Value is the stored secret value.
	Value string
}

// Share grants a user read access to a secret. At most one row
// exists per (secret, user) pair.
type Share struct {
	// ID is the numeric identity assigned by the database.
	ID int64
	// SecretID references the shared secret.
	SecretID int64
	// UserID is the GitHub id of the grantee.
	UserID string
}

// SecretView is a secret as seen by a caller, annotated with the
// actual owner so shared secrets stay attributable.
type SecretView struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	OwnerID string `json:"owner_id"`
}

// Identity is a normalized GitHub user profile returned by token verification.
type Identity struct {
	// ID is the GitHub user id as a string. Always non-empty.
	ID string `json:"id"`
	// Login is the GitHub username.
	Login string `json:"login"`
	// Name is the optional display name.
	Name string `json:"name"`
	// AvatarURL is the profile picture URL.
	AvatarURL string `json:"avatar_url"`
}

// TokenBundle is the outcome of a successful login: the access token
// together with the identity it was verified against.
type TokenBundle struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	Scope       string   `json:"scope"`
	User        Identity `json:"user"`
}
