package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

// newTestClient returns a Client pointed at srv with a token already
// cached in a temporary token file.
func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c := New(srv.URL)
	c.Tokens = &TokenFile{Path: filepath.Join(t.TempDir(), "token.json")}
	if err := c.Tokens.Save("gho_abc", "42"); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return c
}

func TestCreateSecret(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/secrets" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.CreateSecret("db", "s3cr3t"); err != nil {
		t.Fatalf("CreateSecret failed: %v", err)
	}
	if gotAuth != "Bearer gho_abc" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotBody["key"] != "db" || gotBody["value"] != "s3cr3t" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestCreateSecret_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "key exists for this owner", http.StatusConflict)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	err := c.CreateSecret("db", "s3cr3t")
	if err == nil {
		t.Fatal("expected error for duplicate key")
	}
}

func TestGetSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/secrets/db" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"key": "db", "value": "s3cr3t", "owner_id": "7"})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	view, err := c.GetSecret("db")
	if err != nil {
		t.Fatalf("GetSecret failed: %v", err)
	}
	if view.Key != "db" || view.Value != "s3cr3t" || view.OwnerID != "7" {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestGetSecret_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "secret not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.GetSecret("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSecrets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]string{
			{"key": "db", "value": "v1", "owner_id": "42"},
			{"key": "api", "value": "v2", "owner_id": "7"},
		}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	items, err := c.ListSecrets()
	if err != nil {
		t.Fatalf("ListSecrets failed: %v", err)
	}
	if len(items) != 2 || items[0].Key != "db" || items[1].OwnerID != "7" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestShareSecret(t *testing.T) {
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/secrets/db/share" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.ShareSecret("db", "77"); err != nil {
		t.Fatalf("ShareSecret failed: %v", err)
	}
	if gotBody["github_id"] != "77" {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestDeleteSecret_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "secret not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.DeleteSecret("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUnauthorizedClearsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid access token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.DeleteSecret("db"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if tok := c.Tokens.Load(); tok != nil {
		t.Errorf("expected cached token to be cleared, got %+v", tok)
	}
}

func TestNotLoggedIn(t *testing.T) {
	c := New("http://localhost:0")
	c.Tokens = &TokenFile{Path: filepath.Join(t.TempDir(), "token.json")}
	if err := c.CreateSecret("db", "v"); err == nil {
		t.Fatal("expected error without cached token")
	}
}

func TestLoginWithPersonalToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login-test" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "ghp_ok",
			"token_type":   "bearer",
			"user":         map[string]string{"id": "42", "login": "alice"},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	tok, err := c.LoginWithPersonalToken("ghp_ok")
	if err != nil {
		t.Fatalf("LoginWithPersonalToken failed: %v", err)
	}
	if tok.AccessToken != "ghp_ok" || tok.GithubID != "42" {
		t.Errorf("unexpected token: %+v", tok)
	}
	if cached := c.Tokens.Load(); cached == nil || cached.AccessToken != "ghp_ok" {
		t.Errorf("expected token to be cached, got %+v", cached)
	}
}

func TestLoginWithPersonalToken_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid github access token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if _, err := c.LoginWithPersonalToken("ghp_bad"); err == nil {
		t.Fatal("expected error for rejected token")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestPing_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": false})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	if err := c.Ping(); err == nil {
		t.Fatal("expected error for unhealthy server")
	}
}
