package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/handler"
)

// fakeGitHub is a GitHubAuthenticator that never leaves the process.
type fakeGitHub struct {
	user *auth.GitHubUser
	err  error
	code string // last code passed to Exchange
}

func (f *fakeGitHub) AuthURL(state string) string {
	return "https://github.example/authorize?state=" + url.QueryEscape(state)
}

func (f *fakeGitHub) Exchange(ctx context.Context, code string) (*auth.GitHubUser, error) {
	f.code = code
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func newTestAuthHandler(t *testing.T, gh *fakeGitHub) *handler.AuthHandler {
	t.Helper()
	api := newTestAPI(t)
	return handler.NewAuthHandler(gh, api.users, time.Hour, false, zerolog.Nop())
}

func cookieNamed(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_GitHubLogin(t *testing.T) {
	h := newTestAuthHandler(t, &fakeGitHub{})

	rr := httptest.NewRecorder()
	h.HandleGitHubLogin(rr, httptest.NewRequest(http.MethodGet, "/auth/github/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	state := cookieNamed(rr, "oauth_state")
	require.NotNil(t, state)
	assert.True(t, state.HttpOnly)

	loc, err := url.Parse(rr.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, state.Value, loc.Query().Get("state"))
}

func TestAuthHandler_GitHubCallback(t *testing.T) {
	callback := func(h *handler.AuthHandler, query, state string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/auth/github/callback?"+query, nil)
		if state != "" {
			req.AddCookie(&http.Cookie{Name: "oauth_state", Value: state})
		}
		rr := httptest.NewRecorder()
		h.HandleGitHubCallback(rr, req)
		return rr
	}

	t.Run("success sets token cookie", func(t *testing.T) {
		gh := &fakeGitHub{user: &auth.GitHubUser{ID: 99, Login: "octocat", Email: "octo@example.com"}}
		h := newTestAuthHandler(t, gh)

		rr := callback(h, "code=abc&state=s1", "s1")

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))
		assert.Equal(t, "abc", gh.code)

		token := cookieNamed(rr, auth.TokenCookie)
		require.NotNil(t, token)
		assert.NotEmpty(t, token.Value)
		assert.True(t, token.HttpOnly)
		assert.Equal(t, 3600, token.MaxAge)
	})

	t.Run("state mismatch", func(t *testing.T) {
		h := newTestAuthHandler(t, &fakeGitHub{})
		rr := callback(h, "code=abc&state=evil", "s1")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing state cookie", func(t *testing.T) {
		h := newTestAuthHandler(t, &fakeGitHub{})
		rr := callback(h, "code=abc&state=s1", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("user denied", func(t *testing.T) {
		h := newTestAuthHandler(t, &fakeGitHub{})
		rr := callback(h, "error=access_denied&state=s1", "s1")
		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "/?auth=denied", rr.Header().Get("Location"))
		assert.Nil(t, cookieNamed(rr, auth.TokenCookie))
	})

	t.Run("missing code", func(t *testing.T) {
		h := newTestAuthHandler(t, &fakeGitHub{})
		rr := callback(h, "state=s1", "s1")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := newTestAuthHandler(t, &fakeGitHub{err: errors.New("github down")})
		rr := callback(h, "code=abc&state=s1", "s1")
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Nil(t, cookieNamed(rr, auth.TokenCookie))
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	h := newTestAuthHandler(t, &fakeGitHub{})

	rr := httptest.NewRecorder()
	h.HandleLogout(rr, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	token := cookieNamed(rr, auth.TokenCookie)
	require.NotNil(t, token)
	assert.Equal(t, "", token.Value)
	assert.Less(t, token.MaxAge, 0)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
	}{
		{"store up", nil, http.StatusOK},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(pingerFunc(func(ctx context.Context) error { return tt.pingErr }))
			rr := httptest.NewRecorder()
			h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
