package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/repository/sqlstore"
	"github.com/sakif/blog-api/internal/view"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeClock ticks one second per call so every write gets a distinct,
// increasing timestamp.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

// fakeTagCache is an in-memory TagCache that counts calls and can be told to
// fail.
type fakeTagCache struct {
	tags        []string
	ok          bool
	err         error
	gets        int
	sets        int
	invalidates int
}

func (f *fakeTagCache) GetTags(ctx context.Context) ([]string, bool, error) {
	f.gets++
	if f.err != nil {
		return nil, false, f.err
	}
	return f.tags, f.ok, nil
}

func (f *fakeTagCache) SetTags(ctx context.Context, tags []string) error {
	f.sets++
	if f.err != nil {
		return f.err
	}
	f.tags, f.ok = tags, true
	return nil
}

func (f *fakeTagCache) Invalidate(ctx context.Context) error {
	f.invalidates++
	if f.err != nil {
		return f.err
	}
	f.tags, f.ok = nil, false
	return nil
}

type testEnv struct {
	store    *sqlstore.Store
	cache    *fakeTagCache
	tokens   *auth.TokenService
	articles *ArticleService
	comments *CommentService
	profiles *ProfileService
	tags     *TagService
	users    *UserService
}

// newTestEnv wires every service against a fresh in-memory SQLite store.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := auth.NewTokenService("test-secret-key-32-bytes-long!!", time.Hour)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(bcrypt.MinCost)

	clk := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	cache := &fakeTagCache{}
	log := zerolog.Nop()

	tags := NewTagService(store, cache, log)
	profiles := NewProfileService(store, store, log)
	env := &testEnv{
		store:    store,
		cache:    cache,
		tokens:   tokens,
		articles: NewArticleService(store, store, store, tags, log),
		comments: NewCommentService(store, store, store, store, log),
		profiles: profiles,
		tags:     tags,
		users:    NewUserService(store, profiles, tokens, passwords, log),
	}
	env.articles.now = clk.Now
	env.comments.now = clk.Now
	env.profiles.now = clk.Now
	env.users.now = clk.Now
	return env
}

// register creates a user with password "password123" and returns its id.
func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	u, err := e.users.Register(context.Background(), username, username+"@example.com", "password123")
	require.NoError(t, err)

	id, err := e.tokens.Validate(u.Token)
	require.NoError(t, err)
	return id
}

func (e *testEnv) createArticle(t *testing.T, authorID, title string, tags ...string) *view.Article {
	t.Helper()
	a, err := e.articles.Create(context.Background(), authorID, ArticleInput{
		Title:       title,
		Description: "About " + title,
		Body:        "Body of " + title,
		TagList:     tags,
	})
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string { return &s }

func slugs(list *view.ArticleList) []string {
	out := make([]string, len(list.Articles))
	for i, a := range list.Articles {
		out[i] = a.Slug
	}
	return out
}
