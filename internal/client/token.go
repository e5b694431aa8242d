// Package client implements the CLI side of secretshare: cached login
// tokens, the login flow and calls to the server API.
package client

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// tokenFileName is the cached-token file placed in the home directory.
const tokenFileName = ".secretshare-token"

// Token is the cached login credential written after a successful login.
type Token struct {
	AccessToken string `json:"access_token"`
	GithubID    string `json:"github_id"`
	CreatedAt   int64  `json:"created_at"`
}

// TokenFile reads and writes the cached token. The zero value uses the
// default path under the user's home directory.
type TokenFile struct {
	// Path overrides the token file location when non-empty.
	Path string
}

func (t *TokenFile) path() string {
	if t.Path != "" {
		return t.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return tokenFileName
	}
	return filepath.Join(home, tokenFileName)
}

// Load returns the cached token, or nil when none is stored or the file
// is unreadable or incomplete.
func (t *TokenFile) Load() *Token {
	data, err := os.ReadFile(t.path())
	if err != nil {
		return nil
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil
	}
	if tok.AccessToken == "" || tok.GithubID == "" {
		return nil
	}
	return &tok
}

// Save writes the token to disk, readable only by the current user.
func (t *TokenFile) Save(accessToken, githubID string) error {
	tok := Token{
		AccessToken: accessToken,
		GithubID:    githubID,
		CreatedAt:   time.Now().Unix(),
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.path(), data, 0o600)
}

// Clear removes the cached token. Missing files are not an error.
func (t *TokenFile) Clear() error {
	err := os.Remove(t.path())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
