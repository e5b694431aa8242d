// Package github talks to the GitHub OAuth and user APIs. It exchanges
// authorization codes for access tokens and verifies tokens by fetching
// the user profile they belong to.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atinyakov/secretshare/internal/apperr"
	"github.com/atinyakov/secretshare/internal/models"
)

const (
	defaultAuthorizeURL = "https://github.com/login/oauth/authorize"
	defaultTokenURL     = "https://github.com/login/oauth/access_token"
	defaultUserURL      = "https://api.github.com/user"

	acceptGithubJSON = "application/vnd.github+json"
	apiVersion       = "2022-11-28"
)

// TokenKind distinguishes how an access token was obtained, which
// determines the Authorization scheme GitHub expects.
type TokenKind string

const (
	// TokenOAuth is an access token issued by the redirect-based OAuth flow.
	TokenOAuth TokenKind = "oauth"
	// TokenPersonal is a long-lived personal access token supplied directly
	// by the user. Classic PATs expect the "token" scheme, so verification
	// tries "token" first and falls back to "Bearer".
	TokenPersonal TokenKind = "pat"
)

// Client calls the GitHub OAuth endpoints. The endpoint URLs and the
// underlying HTTP client are exported so tests can point them at a local
// httptest server.
type Client struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthorizeEndpoint string
	TokenEndpoint     string
	UserEndpoint      string

	HTTPClient *http.Client
}

// NewClient creates a Client with the production GitHub endpoints.
func NewClient(clientID, clientSecret, redirectURI string) *Client {
	return &Client{
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		RedirectURI:       redirectURI,
		AuthorizeEndpoint: defaultAuthorizeURL,
		TokenEndpoint:     defaultTokenURL,
		UserEndpoint:      defaultUserURL,
		HTTPClient:        &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthorizeURL builds the browser URL that starts the OAuth flow.
func (c *Client) AuthorizeURL(scope, state string) string {
	params := url.Values{}
	params.Set("client_id", c.ClientID)
	params.Set("redirect_uri", c.RedirectURI)
	params.Set("scope", scope)
	params.Set("state", state)
	params.Set("allow_signup", "false")
	return c.AuthorizeEndpoint + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for an access token.
// Returns apperr.ErrUpstreamUnavailable when GitHub is unreachable and
// apperr.ErrProviderRejected when GitHub declines the code or returns a
// payload without an access token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (models.TokenBundle, error) {
	form := url.Values{}
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return models.TokenBundle{}, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return models.TokenBundle{}, fmt.Errorf("token exchange: %v: %w", err, apperr.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()

	var payload struct {
		AccessToken      string `json:"access_token"`
		TokenType        string `json:"token_type"`
		Scope            string `json:"scope"`
		ErrorDescription string `json:"error_description"`
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.TokenBundle{}, fmt.Errorf("read token response: %v: %w", err, apperr.ErrUpstreamUnavailable)
	}
	// GitHub reports exchange failures both via non-200 statuses and via
	// error fields in a 200 body, so decode before checking either.
	_ = json.Unmarshal(body, &payload)

	if resp.StatusCode != http.StatusOK {
		return models.TokenBundle{}, rejectionError(payload.ErrorDescription, "github declined the authorization request")
	}
	if payload.AccessToken == "" {
		return models.TokenBundle{}, rejectionError(payload.ErrorDescription, "missing access token in github response")
	}

	tokenType := payload.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return models.TokenBundle{
		AccessToken: payload.AccessToken,
		TokenType:   tokenType,
		Scope:       payload.Scope,
	}, nil
}

// VerifyToken validates an access token by fetching the GitHub user it
// belongs to and returns the normalized identity. It never creates any
// local records.
//
// For TokenOAuth exactly one request is made using the Bearer scheme.
// For TokenPersonal the "token" scheme is tried first and Bearer is
// attempted only after an unauthorized response. An unauthorized final
// attempt maps to apperr.ErrInvalidCredential; any other non-success
// response maps to apperr.ErrUpstreamUnavailable.
func (c *Client) VerifyToken(ctx context.Context, token string, kind TokenKind) (models.Identity, error) {
	schemes := []string{"Bearer"}
	if kind == TokenPersonal {
		schemes = []string{"token", "Bearer"}
	}

	var lastStatus int
	for _, scheme := range schemes {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.UserEndpoint, nil)
		if err != nil {
			return models.Identity{}, fmt.Errorf("build user request: %w", err)
		}
		req.Header.Set("Authorization", scheme+" "+token)
		req.Header.Set("Accept", acceptGithubJSON)
		req.Header.Set("X-GitHub-Api-Version", apiVersion)

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return models.Identity{}, fmt.Errorf("fetch github user: %v: %w", err, apperr.ErrUpstreamUnavailable)
		}

		if resp.StatusCode == http.StatusOK {
			identity, err := decodeIdentity(resp.Body)
			resp.Body.Close()
			return identity, err
		}
		resp.Body.Close()

		lastStatus = resp.StatusCode
		if resp.StatusCode == http.StatusUnauthorized {
			continue
		}
		break
	}

	if lastStatus == http.StatusUnauthorized {
		return models.Identity{}, fmt.Errorf("github rejected access token: %w", apperr.ErrInvalidCredential)
	}
	return models.Identity{}, fmt.Errorf("unexpected github response %d: %w", lastStatus, apperr.ErrUpstreamUnavailable)
}

// decodeIdentity parses a GitHub user payload and normalizes the numeric
// id to a string. A payload without an id is a protocol violation.
func decodeIdentity(r io.Reader) (models.Identity, error) {
	var user struct {
		ID        *int64 `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(r).Decode(&user); err != nil {
		return models.Identity{}, fmt.Errorf("decode github user: %w", apperr.ErrUpstreamUnavailable)
	}
	if user.ID == nil {
		return models.Identity{}, fmt.Errorf("github user payload missing id: %w", apperr.ErrUpstreamUnavailable)
	}
	return models.Identity{
		ID:        strconv.FormatInt(*user.ID, 10),
		Login:     user.Login,
		Name:      user.Name,
		AvatarURL: user.AvatarURL,
	}, nil
}

func rejectionError(detail, fallback string) error {
	if detail == "" {
		detail = fallback
	}
	return fmt.Errorf("%s: %w", detail, apperr.ErrProviderRejected)
}
