package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// fakeGitHub serves the token endpoint and the two API paths Exchange uses.
func fakeGitHub(t *testing.T, user map[string]any, emails []map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "gho_test", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gho_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(emails)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestGitHubProvider(srv *httptest.Server) *GitHubProvider {
	p := NewGitHubProvider("client-id", "client-secret", "http://localhost/auth/github/callback")
	p.config.Endpoint = oauth2.Endpoint{
		AuthURL:  srv.URL + "/login/oauth/authorize",
		TokenURL: srv.URL + "/login/oauth/access_token",
	}
	p.apiBase = srv.URL
	return p
}

func TestGitHubProvider_AuthURL(t *testing.T) {
	p := NewGitHubProvider("client-id", "client-secret", "http://localhost/cb")

	u, err := url.Parse(p.AuthURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
}

func TestGitHubProvider_Exchange(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 583231, "login": "octocat", "email": "octocat@github.com", "bio": "meow"},
		nil,
	)
	p := newTestGitHubProvider(srv)

	got, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, int64(583231), got.ID)
	assert.Equal(t, "octocat", got.Login)
	assert.Equal(t, "octocat@github.com", got.Email)
	assert.Equal(t, "meow", got.Bio)
}

func TestGitHubProvider_Exchange_HiddenEmail(t *testing.T) {
	srv := fakeGitHub(t,
		map[string]any{"id": 7, "login": "shy"},
		[]map[string]any{
			{"email": "old@example.com", "primary": false, "verified": true},
			{"email": "Shy@Example.com", "primary": true, "verified": true},
		},
	)
	p := newTestGitHubProvider(srv)

	got, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "shy@example.com", got.Email)
}

func TestGitHubProvider_Exchange_BadCode(t *testing.T) {
	srv := fakeGitHub(t, map[string]any{"id": 1, "login": "x"}, nil)
	p := newTestGitHubProvider(srv)

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGitHubProvider_Exchange_InvalidUser(t *testing.T) {
	srv := fakeGitHub(t, map[string]any{"login": "ghost"}, nil)
	p := newTestGitHubProvider(srv)

	_, err := p.Exchange(context.Background(), "good-code")
	assert.Error(t, err)
}
