package handler

import (
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/auth"
)

const stateCookie = "oauth_state"

// AuthHandler runs the GitHub login flow and clears the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → check state, exchange the code, sign the user in
//   - HandleLogout         → clear the JWT cookie
//
// Password login does not go through here; see UserHandler.
type AuthHandler struct {
	github   GitHubAuthenticator
	users    UserService
	tokenTTL time.Duration
	secure   bool
	logger   zerolog.Logger
}

// NewAuthHandler wires the handler. secure marks cookies HTTPS-only and
// should be true outside local development.
func NewAuthHandler(
	github GitHubAuthenticator,
	users UserService,
	tokenTTL time.Duration,
	secure bool,
	logger zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:   github,
		users:    users,
		tokenTTL: tokenTTL,
		secure:   secure,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived HttpOnly cookie and into the
// authorization URL. HandleGitHubCallback only proceeds when the two match,
// which proves the flow was started by this browser.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile
//  3. Find or create the local account
//  4. Store the JWT in an HttpOnly cookie
//  5. Redirect to the app home page
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" {
		h.logger.Warn().Msg("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn().Msg("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// single use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info().Str("error", errParam).Msg("auth callback: user denied authorization")
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error().Err(err).Msg("auth callback: GitHub exchange failed")
		http.Error(w, "authentication failed", http.StatusBadGateway)
		return
	}

	user, err := h.users.LoginGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error().Err(err).Int64("githubID", ghUser.ID).Msg("auth callback: sign-in failed")
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    user.Token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the JWT cookie.
//
// HTTP: POST /auth/logout
//
// Tokens are stateless, so the JWT stays valid until it expires; logging out
// only removes the browser's copy. Clients that keep the token themselves
// (Authorization header) simply discard it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}
