package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/handler"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/service"
)

// =========================================================================
// TEST HARNESS
// =========================================================================

// testAPI serves the /api routes over real services and an in-memory store.
type testAPI struct {
	t      *testing.T
	router chi.Router
	users  *service.UserService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zerolog.Nop()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := auth.NewTokenService("test-secret-key-32-bytes-long!!", time.Hour)
	require.NoError(t, err)

	tagService := service.NewTagService(store, nil, log)
	profileService := service.NewProfileService(store, store, log)
	userService := service.NewUserService(store, profileService, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), log)

	articles := handler.NewArticleHandler(service.NewArticleService(store, store, store, tagService, log))
	comments := handler.NewCommentHandler(service.NewCommentService(store, store, store, store, log))
	profiles := handler.NewProfileHandler(profileService)
	tags := handler.NewTagHandler(tagService)
	users := handler.NewUserHandler(userService)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/api/articles", articles.HandleList)
		r.Get("/api/articles/{slug}", articles.HandleGet)
		r.Get("/api/articles/{slug}/comments", comments.HandleList)
		r.Get("/api/profiles/{username}", profiles.HandleGet)
		r.Get("/api/tags", tags.HandleList)
		r.Post("/api/users", users.HandleRegister)
		r.Post("/api/users/login", users.HandleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/api/user", users.HandleCurrent)
		r.Put("/api/user", users.HandleUpdate)
		r.Get("/api/articles/feed", articles.HandleFeed)
		r.Post("/api/articles", articles.HandleCreate)
		r.Put("/api/articles/{slug}", articles.HandleUpdate)
		r.Delete("/api/articles/{slug}", articles.HandleDelete)
		r.Post("/api/articles/{slug}/favorite", articles.HandleFavorite)
		r.Delete("/api/articles/{slug}/favorite", articles.HandleUnfavorite)
		r.Post("/api/articles/{slug}/comments", comments.HandleCreate)
		r.Delete("/api/articles/{slug}/comments/{id}", comments.HandleDelete)
		r.Post("/api/profiles/{username}/follow", profiles.HandleFollow)
		r.Delete("/api/profiles/{username}/follow", profiles.HandleUnfollow)
	})

	return &testAPI{t: t, router: r, users: userService}
}

// do sends a request with an optional JSON body and token and returns the
// recorder.
func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// signUp registers a user through the service and returns its token.
func (a *testAPI) signUp(username string) string {
	a.t.Helper()
	u, err := a.users.Register(context.Background(), username, username+"@example.com", "password123")
	require.NoError(a.t, err)
	return u.Token
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v), rr.Body.String())
	return v
}

type articleBody struct {
	Article struct {
		Slug           string   `json:"slug"`
		Title          string   `json:"title"`
		Body           string   `json:"body"`
		TagList        []string `json:"tagList"`
		Favorited      bool     `json:"favorited"`
		FavoritesCount int      `json:"favoritesCount"`
		Author         struct {
			Username  string `json:"username"`
			Following bool   `json:"following"`
		} `json:"author"`
	} `json:"article"`
}

type articleListBody struct {
	Articles []struct {
		Slug string `json:"slug"`
	} `json:"articles"`
	ArticlesCount int `json:"articlesCount"`
}

type errorBody struct {
	Error  string              `json:"error"`
	Errors map[string][]string `json:"errors"`
}

const dragonArticle = `{"article":{"title":"How to train your dragon","description":"Ever wonder how?","body":"You have to believe","tagList":["dragons","training"]}}`
