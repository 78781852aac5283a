package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/view"
)

// CommentHandler serves /api/articles/{slug}/comments.
type CommentHandler struct {
	comments CommentService
}

func NewCommentHandler(comments CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	Comment *struct {
		Body string `json:"body"`
	} `json:"comment"`
}

// HTTP: GET /api/articles/{slug}/comments
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	comments, err := h.comments.List(r.Context(), chi.URLParam(r, "slug"), viewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct {
		Comments []view.Comment `json:"comments"`
	}{comments})
}

// HandleCreate adds a comment.
//
// HTTP: POST /api/articles/{slug}/comments (auth required)
// REQUEST BODY: {"comment": {"body": "..."}}
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCommentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Comment == nil {
		writeError(w, r, missing("comment"))
		return
	}

	c, err := h.comments.Create(r.Context(), chi.URLParam(r, "slug"), viewerID(r.Context()), req.Comment.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, struct {
		Comment view.Comment `json:"comment"`
	}{*c})
}

// HandleDelete removes one of the caller's comments. An id that is not an
// integer cannot name a comment, so it is a 404.
//
// HTTP: DELETE /api/articles/{slug}/comments/{id} (auth required)
func (h *CommentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeError(w, r, apperror.NotFound("comment", rawID))
		return
	}

	if err := h.comments.Delete(r.Context(), chi.URLParam(r, "slug"), id, viewerID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct{}{})
}
