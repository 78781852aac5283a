package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/blog-api/internal/service"
	"github.com/sakif/blog-api/internal/view"
)

// ArticleHandler serves /api/articles and the favorite endpoints.
type ArticleHandler struct {
	articles ArticleService
}

func NewArticleHandler(articles ArticleService) *ArticleHandler {
	return &ArticleHandler{articles: articles}
}

type articleEnvelope struct {
	Article view.Article `json:"article"`
}

type createArticleRequest struct {
	Article *service.ArticleInput `json:"article"`
}

type updateArticleRequest struct {
	Article *struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Body        *string `json:"body"`
	} `json:"article"`
}

// HandleList lists articles, newest first.
//
// HTTP: GET /api/articles?tag=&author=&favorited=&limit=&offset=
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	list, err := h.articles.List(r.Context(), viewerID(r.Context()), service.ArticleQuery{
		Tag:       q.Get("tag"),
		Author:    q.Get("author"),
		Favorited: q.Get("favorited"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// HandleFeed lists articles by authors the caller follows.
//
// HTTP: GET /api/articles/feed (auth required)
func (h *ArticleHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pagination(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	list, err := h.articles.Feed(r.Context(), viewerID(r.Context()), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, list)
}

// HTTP: GET /api/articles/{slug}
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.GetBySlug(r.Context(), chi.URLParam(r, "slug"), viewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, articleEnvelope{Article: *a})
}

// HandleCreate publishes an article.
//
// HTTP: POST /api/articles (auth required)
// REQUEST BODY: {"article": {"title", "description", "body", "tagList"}}
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Article == nil {
		writeError(w, r, missing("article"))
		return
	}

	a, err := h.articles.Create(r.Context(), viewerID(r.Context()), *req.Article)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, articleEnvelope{Article: *a})
}

// HandleUpdate changes the supplied fields of the caller's own article.
//
// HTTP: PUT /api/articles/{slug} (auth required)
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Article == nil {
		writeError(w, r, missing("article"))
		return
	}

	a, err := h.articles.Update(r.Context(), chi.URLParam(r, "slug"), viewerID(r.Context()), service.ArticlePatch{
		Title:       req.Article.Title,
		Description: req.Article.Description,
		Body:        req.Article.Body,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, articleEnvelope{Article: *a})
}

// HTTP: DELETE /api/articles/{slug} (auth required)
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.articles.Delete(r.Context(), chi.URLParam(r, "slug"), viewerID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, struct{}{})
}

// HTTP: POST /api/articles/{slug}/favorite (auth required)
func (h *ArticleHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.Favorite(r.Context(), chi.URLParam(r, "slug"), viewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, articleEnvelope{Article: *a})
}

// HTTP: DELETE /api/articles/{slug}/favorite (auth required)
func (h *ArticleHandler) HandleUnfavorite(w http.ResponseWriter, r *http.Request) {
	a, err := h.articles.Unfavorite(r.Context(), chi.URLParam(r, "slug"), viewerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, articleEnvelope{Article: *a})
}
