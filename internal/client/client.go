package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/atinyakov/secretshare/internal/models"
)

const (
	// pollInterval is how often the login poll endpoint is queried.
	pollInterval = 3 * time.Second
	// loginTimeout matches the server-side session TTL.
	loginTimeout = 600 * time.Second
)

// ErrUnauthorized is returned when the server rejects the cached token.
var ErrUnauthorized = errors.New("session expired or invalid")

// ErrNotFound is returned when the requested secret does not exist or
// is not visible to the caller.
var ErrNotFound = errors.New("secret not found")

// Client talks to the secretshare server API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  *TokenFile
}

// New creates a Client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		Tokens:  &TokenFile{},
	}
}

// loginStartResponse mirrors the POST /auth/login payload.
type loginStartResponse struct {
	SessionID string `json:"session_id"`
	AuthURL   string `json:"auth_url"`
}

// pollResponse mirrors the GET /auth/login/{id} payload.
type pollResponse struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Token   *models.TokenBundle `json:"token"`
}

// Login runs the browser-based login flow: it starts a session, prints
// the URL to open, tries to open the browser and polls until the session
// completes or its TTL expires. The resulting token is cached on disk.
func (c *Client) Login(scope string) (*Token, error) {
	resp, err := c.HTTP.Post(c.BaseURL+"/auth/login?scope="+url.QueryEscape(scope), "application/json", nil)
	if err != nil {
		return nil, fmt.Errorf("start login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("start login: unexpected status %d", resp.StatusCode)
	}

	var start loginStartResponse
	if err := json.NewDecoder(resp.Body).Decode(&start); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if start.SessionID == "" {
		return nil, errors.New("login response missing session_id")
	}

	fmt.Printf("Open the following link in a browser to continue:\n%s\n", start.AuthURL)
	if err := OpenBrowser(start.AuthURL); err != nil {
		fmt.Println("Unable to open browser automatically. Please open the link manually.")
	}

	return c.pollLogin(start.SessionID)
}

// pollLogin waits for the login session to reach a terminal state.
func (c *Client) pollLogin(sessionID string) (*Token, error) {
	fmt.Println("Waiting for authentication...")
	deadline := time.Now().Add(loginTimeout)

	for time.Now().Before(deadline) {
		time.Sleep(pollInterval)

		resp, err := c.HTTP.Get(c.BaseURL + "/auth/login/" + url.PathEscape(sessionID))
		if err != nil {
			return nil, fmt.Errorf("poll login: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			resp.Body.Close()
			return nil, errors.New("login session is no longer valid, please run login again")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("poll login: unexpected status %d", resp.StatusCode)
		}

		var poll pollResponse
		err = json.NewDecoder(resp.Body).Decode(&poll)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode poll response: %w", err)
		}

		switch poll.Status {
		case "ready":
			if poll.Token == nil {
				return nil, errors.New("login response missing token")
			}
			if err := c.Tokens.Save(poll.Token.AccessToken, poll.Token.User.ID); err != nil {
				return nil, fmt.Errorf("save token: %w", err)
			}
			return &Token{AccessToken: poll.Token.AccessToken, GithubID: poll.Token.User.ID}, nil
		case "error":
			return nil, fmt.Errorf("login failed: %s", poll.Message)
		}
	}
	return nil, errors.New("login timed out, please start a new login session")
}

// LoginWithPersonalToken validates a GitHub personal access token with
// the server and caches the result.
func (c *Client) LoginWithPersonalToken(token string) (*Token, error) {
	body, _ := json.Marshal(map[string]string{"token": token})
	resp, err := c.HTTP.Post(c.BaseURL+"/auth/login-test", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("personal token login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("personal token login: unexpected status %d", resp.StatusCode)
	}

	var bundle models.TokenBundle
	if err := json.NewDecoder(resp.Body).Decode(&bundle); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if bundle.AccessToken == "" || bundle.User.ID == "" {
		return nil, errors.New("login response missing required fields")
	}
	if err := c.Tokens.Save(bundle.AccessToken, bundle.User.ID); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &Token{AccessToken: bundle.AccessToken, GithubID: bundle.User.ID}, nil
}

// CreateSecret stores a new key/value secret for the logged-in user.
func (c *Client) CreateSecret(key, value string) error {
	body, _ := json.Marshal(map[string]string{"key": key, "value": value})
	resp, err := c.do(http.MethodPost, "/secrets", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return fmt.Errorf("key %q already exists", key)
	default:
		return fmt.Errorf("create secret: unexpected status %d", resp.StatusCode)
	}
}

// GetSecret fetches a single secret visible to the logged-in user.
func (c *Client) GetSecret(key string) (*models.SecretView, error) {
	resp, err := c.do(http.MethodGet, "/secrets/"+url.PathEscape(key), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var view models.SecretView
		if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
			return nil, fmt.Errorf("decode secret: %w", err)
		}
		return &view, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("get secret: unexpected status %d", resp.StatusCode)
	}
}

// ListSecrets fetches every secret visible to the logged-in user.
func (c *Client) ListSecrets() ([]models.SecretView, error) {
	resp, err := c.do(http.MethodGet, "/secrets", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list secrets: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Items []models.SecretView `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode secrets: %w", err)
	}
	return payload.Items, nil
}

// ShareSecret grants another GitHub user read access to one of the
// logged-in user's secrets.
func (c *Client) ShareSecret(key, githubID string) error {
	body, _ := json.Marshal(map[string]string{"github_id": githubID})
	resp, err := c.do(http.MethodPost, "/secrets/"+url.PathEscape(key)+"/share", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("share secret: unexpected status %d", resp.StatusCode)
	}
}

// DeleteSecret removes one of the logged-in user's secrets.
func (c *Client) DeleteSecret(key string) error {
	resp, err := c.do(http.MethodDelete, "/secrets/"+url.PathEscape(key), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("delete secret: unexpected status %d", resp.StatusCode)
	}
}

// Ping checks the server health endpoint.
func (c *Client) Ping() error {
	resp, err := c.HTTP.Get(c.BaseURL + "/healthz")
	if err != nil {
		return fmt.Errorf("unable to reach API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected response (%d)", resp.StatusCode)
	}
	var payload struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || !payload.OK {
		return errors.New("API unhealthy response")
	}
	return nil
}

// do sends an authenticated request. A 401 clears the cached token and
// surfaces ErrUnauthorized so the caller can ask the user to log in again.
func (c *Client) do(method, path string, body *bytes.Reader) (*http.Response, error) {
	tok := c.Tokens.Load()
	if tok == nil {
		return nil, errors.New("you are not logged in, run -cmd login first")
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, c.BaseURL+path, body)
	} else {
		req, err = http.NewRequest(method, c.BaseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		_ = c.Tokens.Clear()
		return nil, ErrUnauthorized
	}
	return resp, nil
}
