package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type commentBody struct {
	Comment struct {
		ID     int64  `json:"id"`
		Body   string `json:"body"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	} `json:"comment"`
}

type commentListBody struct {
	Comments []struct {
		ID   int64  `json:"id"`
		Body string `json:"body"`
	} `json:"comments"`
}

func TestCommentHandler(t *testing.T) {
	api := newTestAPI(t)
	jake := api.signUp("jake")
	jane := api.signUp("jane")
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/articles", jake, dragonArticle).Code)
	const base = "/api/articles/how-to-train-your-dragon/comments"

	rr := api.do(http.MethodPost, base, jane, `{"comment":{"body":"Thank you so much!"}}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[commentBody](t, rr)
	assert.Equal(t, "Thank you so much!", created.Comment.Body)
	assert.Equal(t, "jane", created.Comment.Author.Username)

	rr = api.do(http.MethodGet, base, "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[commentListBody](t, rr)
	require.Len(t, list.Comments, 1)
	assert.Equal(t, created.Comment.ID, list.Comments[0].ID)

	id := strconv.FormatInt(created.Comment.ID, 10)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodDelete, base+"/"+id, jake, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, base+"/not-a-number", jane, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/articles/missing/comments/"+id, jane, "").Code)

	rr = api.do(http.MethodDelete, base+"/"+id, jane, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{}`, rr.Body.String())

	rr = api.do(http.MethodGet, base, "", "")
	assert.Empty(t, decode[commentListBody](t, rr).Comments)
}

func TestCommentHandler_Errors(t *testing.T) {
	api := newTestAPI(t)
	jake := api.signUp("jake")
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/articles", jake, dragonArticle).Code)
	const base = "/api/articles/how-to-train-your-dragon/comments"

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, base, "", `{"comment":{"body":"hi"}}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, base, jake, `{"comment":{"body":"  "}}`).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, api.do(http.MethodPost, base, jake, `{}`).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/api/articles/missing/comments", jake, `{"comment":{"body":"hi"}}`).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/articles/missing/comments", "", "").Code)
}
