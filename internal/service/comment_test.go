package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/apperror"
)

func TestCommentCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jake := env.register(t, "jake")
	jane := env.register(t, "jane")
	a := env.createArticle(t, jake, "Discussed")

	first, err := env.comments.Create(ctx, a.Slug, jane, "  first!  ")
	require.NoError(t, err)
	assert.Equal(t, "first!", first.Body)
	assert.Equal(t, "jane", first.Author.Username)
	assert.False(t, first.Author.Following)

	second, err := env.comments.Create(ctx, a.Slug, jake, "second")
	require.NoError(t, err)

	_, err = env.profiles.Follow(ctx, jake, "jane")
	require.NoError(t, err)

	list, err := env.comments.List(ctx, a.Slug, jake)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	assert.True(t, list[1].Author.Following, "jake follows jane")
	assert.False(t, list[0].Author.Following)

	anonymous, err := env.comments.List(ctx, a.Slug, "")
	require.NoError(t, err)
	assert.False(t, anonymous[1].Author.Following)
}

func TestCommentList_Empty(t *testing.T) {
	env := newTestEnv(t)
	jake := env.register(t, "jake")
	a := env.createArticle(t, jake, "Quiet")

	list, err := env.comments.List(context.Background(), a.Slug, "")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCommentCreate_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jake := env.register(t, "jake")
	a := env.createArticle(t, jake, "Article")

	_, err := env.comments.Create(ctx, "missing", jake, "hello")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = env.comments.Create(ctx, a.Slug, jake, "   ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCommentDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	jake := env.register(t, "jake")
	jane := env.register(t, "jane")
	a := env.createArticle(t, jake, "First")
	b := env.createArticle(t, jake, "Second")

	c, err := env.comments.Create(ctx, a.Slug, jane, "by jane")
	require.NoError(t, err)

	// the article author does not own the comment
	err = env.comments.Delete(ctx, a.Slug, c.ID, jake)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	// comment ids are scoped to their article
	err = env.comments.Delete(ctx, b.Slug, c.ID, jane)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = env.comments.Delete(ctx, "missing", c.ID, jane)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, env.comments.Delete(ctx, a.Slug, c.ID, jane))

	err = env.comments.Delete(ctx, a.Slug, c.ID, jane)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
