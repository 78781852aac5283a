package handler

import (
	"context"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/service"
	"github.com/sakif/blog-api/internal/view"
)

// The interfaces below are what the handlers need from the service layer.
// The *service types satisfy them; tests may substitute fakes.

type ArticleService interface {
	List(ctx context.Context, viewerID string, q service.ArticleQuery) (*view.ArticleList, error)
	Feed(ctx context.Context, viewerID string, limit, offset int) (*view.ArticleList, error)
	GetBySlug(ctx context.Context, slug, viewerID string) (*view.Article, error)
	Create(ctx context.Context, authorID string, in service.ArticleInput) (*view.Article, error)
	Update(ctx context.Context, slug, actorID string, patch service.ArticlePatch) (*view.Article, error)
	Delete(ctx context.Context, slug, actorID string) error
	Favorite(ctx context.Context, slug, actorID string) (*view.Article, error)
	Unfavorite(ctx context.Context, slug, actorID string) (*view.Article, error)
}

type CommentService interface {
	List(ctx context.Context, slug, viewerID string) ([]view.Comment, error)
	Create(ctx context.Context, slug, authorID, body string) (*view.Comment, error)
	Delete(ctx context.Context, slug string, commentID int64, actorID string) error
}

type ProfileService interface {
	Get(ctx context.Context, username, viewerID string) (*view.Profile, error)
	Follow(ctx context.Context, followerID, username string) (*view.Profile, error)
	Unfollow(ctx context.Context, followerID, username string) (*view.Profile, error)
}

type TagService interface {
	List(ctx context.Context) ([]string, error)
}

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*view.User, error)
	Login(ctx context.Context, email, password string) (*view.User, error)
	Current(ctx context.Context, userID string) (*view.User, error)
	Update(ctx context.Context, userID string, patch service.UserPatch) (*view.User, error)
	LoginGitHub(ctx context.Context, gh *auth.GitHubUser) (*view.User, error)
}

// GitHubAuthenticator runs the OAuth code flow. *auth.GitHubProvider
// implements it.
type GitHubAuthenticator interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

var (
	_ ArticleService      = (*service.ArticleService)(nil)
	_ CommentService      = (*service.CommentService)(nil)
	_ ProfileService      = (*service.ProfileService)(nil)
	_ TagService          = (*service.TagService)(nil)
	_ UserService         = (*service.UserService)(nil)
	_ GitHubAuthenticator = (*auth.GitHubProvider)(nil)
)

// viewerID returns the signed-in user's id, or "" for anonymous requests.
func viewerID(ctx context.Context) string {
	id, _ := auth.UserIDFromContext(ctx)
	return id
}
