package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/config"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
)

func testConfig() *config.Config {
	return &config.Config{
		App:      config.AppConfig{Environment: "test", LogLevel: "error", Port: 8080},
		Database: config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"},
		JWT:      config.JWTConfig{Secret: "test-secret-key-32-bytes-long!!", TTL: time.Hour},
		CORS:     config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	store, err := sqlstore.Open(context.Background(), cfg.Database.Driver, cfg.Database.DSN, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv, err := New(cfg, store, nil, zerolog.Nop())
	require.NoError(t, err)
	return srv.Handler()
}

func TestNew_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.Secret = "short"

	store, err := sqlstore.Open(context.Background(), config.DriverSQLite, ":memory:", zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	_, err = New(cfg, store, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, testConfig())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

// TestRoutes walks the main flow through the full middleware stack.
func TestRoutes(t *testing.T) {
	h := newTestServer(t, testConfig())

	send := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Token "+token)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	rr := send(http.MethodPost, "/api/users", "", `{"user":{"username":"jake","email":"jake@jake.jake","password":"jakejake"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var registered struct {
		User struct {
			Token string `json:"token"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&registered))
	token := registered.User.Token

	rr = send(http.MethodPost, "/api/articles", token, `{"article":{"title":"Hello","description":"d","body":"b","tagList":["go"]}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	// the static feed route wins over {slug}
	assert.Equal(t, http.StatusUnauthorized, send(http.MethodGet, "/api/articles/feed", "", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/articles/feed", token, "").Code)

	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/articles/hello", "", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/tags", "", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/profiles/jake", "", "").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "/auth/logout", "", "").Code)

	// GitHub routes are not registered without credentials
	assert.Equal(t, http.StatusNotFound, send(http.MethodGet, "/auth/github/login", "", "").Code)

	rr = send(http.MethodGet, "/api/articles", "", "")
	assert.NotEmpty(t, rr.Header().Get("Content-Type"))
}

func TestGitHubRoutesEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.GitHub = config.GitHubConfig{ClientID: "id", ClientSecret: "secret", CallbackURL: "http://localhost:8080/auth/github/callback"}
	h := newTestServer(t, cfg)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Contains(t, rr.Header().Get("Location"), "github.com/login/oauth/authorize")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/articles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/articles", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
