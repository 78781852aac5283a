package view

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/blog-api/internal/model"
)

func TestNewArticle_NilTagsEncodeAsEmptyArray(t *testing.T) {
	a := &model.Article{Slug: "s", Title: "T", FavoritesCount: 3}
	v := NewArticle(a, nil, Profile{Username: "jake"}, true)

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []any{}, decoded["tagList"])
	assert.Equal(t, true, decoded["favorited"])
	assert.Equal(t, float64(3), decoded["favoritesCount"])
	assert.Equal(t, "jake", decoded["author"].(map[string]any)["username"])
}

func TestNewArticle_CopiesTags(t *testing.T) {
	tags := []string{"a", "b"}
	v := NewArticle(&model.Article{}, tags, Profile{}, false)

	tags[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, v.TagList)
}

func TestNewArticle_DoesNotTouchEntity(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &model.Article{ID: "id", Slug: "s", FavoritesCount: 1, CreatedAt: created}
	before := *a

	NewArticle(a, []string{"x"}, Profile{Following: true}, true)
	assert.Equal(t, before, *a)
}

func TestNewProfileAndUser(t *testing.T) {
	u := &model.User{Username: "jake", Email: "jake@jake.jake", Bio: "bio", Image: "img", PasswordHash: "secret"}

	assert.Equal(t, Profile{Username: "jake", Bio: "bio", Image: "img", Following: true}, NewProfile(u, true))

	raw, err := json.Marshal(NewUser(u, "tok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"jake@jake.jake","token":"tok","username":"jake","bio":"bio","image":"img"}`, string(raw))
}

func TestNewComment(t *testing.T) {
	c := &model.Comment{ID: 7, Body: "hi"}
	v := NewComment(c, Profile{Username: "jake"})
	assert.Equal(t, int64(7), v.ID)
	assert.Equal(t, "hi", v.Body)
	assert.Equal(t, "jake", v.Author.Username)
}
