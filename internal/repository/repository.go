// Package repository declares the persistence contracts the service layer
// depends on. The only implementation is repository/sqlstore; services and
// their tests only see these interfaces.
//
// Conventions shared by every implementation:
//   - a missing row is reported as apperror.ErrNotFound
//   - a unique-key violation is reported as apperror.ErrConflict
//   - multi-row writes are atomic
package repository

import (
	"context"
	"errors"

	"github.com/sakif/blog-api/internal/model"
)

// ErrCounterUnderflow is returned when a favorite row was removed but the
// article's favorites_count was already zero. The enclosing transaction is
// rolled back, so it signals a store that was inconsistent before the call.
var ErrCounterUnderflow = errors.New("repository: favorites_count underflow")

type ListOptions struct {
	Limit  int
	Offset int
}

// ArticleFilter selects articles for listing. All non-empty fields are
// combined with AND. Tag, Author and FavoritedBy compare against the stored
// (normalized) tag name and usernames.
type ArticleFilter struct {
	Tag         string // tag name
	Author      string // author username
	FavoritedBy string // username of a user who favorited the article
	FollowerID  string // only articles whose author this user follows (feed)
	ListOptions
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	// GetUsersByIDs returns the users that exist, keyed by id.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

type FollowRepository interface {
	// Follow reports false when the edge already existed.
	Follow(ctx context.Context, followerID, followedID string) (bool, error)
	// Unfollow reports false when there was no edge to remove.
	Unfollow(ctx context.Context, followerID, followedID string) (bool, error)
	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	// FollowedAmong returns the subset of candidateIDs that followerID follows.
	FollowedAmong(ctx context.Context, followerID string, candidateIDs []string) (map[string]bool, error)
}

type ArticleRepository interface {
	// CreateArticle inserts the article, any missing tags and the links
	// between them in one transaction.
	CreateArticle(ctx context.Context, article *model.Article, tags []string) error
	GetArticleBySlug(ctx context.Context, slug string) (*model.Article, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// ListArticles returns one page, newest first, and the total number of
	// matches before pagination.
	ListArticles(ctx context.Context, filter ArticleFilter) ([]model.Article, int, error)
	UpdateArticle(ctx context.Context, article *model.Article) error
	DeleteArticle(ctx context.Context, id string) error

	// AddFavorite inserts the favorite row and increments favorites_count
	// atomically. It reports false, changing nothing, when the row existed.
	AddFavorite(ctx context.Context, articleID, userID string) (bool, error)
	// RemoveFavorite deletes the favorite row and decrements favorites_count
	// atomically. It reports false, changing nothing, when there was no row.
	RemoveFavorite(ctx context.Context, articleID, userID string) (bool, error)
	// FavoritedAmong returns the subset of articleIDs that userID favorited.
	FavoritedAmong(ctx context.Context, userID string, articleIDs []string) (map[string]bool, error)
	// TagsFor returns each article's tag names sorted by name.
	TagsFor(ctx context.Context, articleIDs []string) (map[string][]string, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	// ListComments returns the article's comments, newest first.
	ListComments(ctx context.Context, articleID string) ([]model.Comment, error)
	// GetComment only finds comments that belong to articleID.
	GetComment(ctx context.Context, articleID string, id int64) (*model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
}

type TagRepository interface {
	// ListTags returns every tag name in alphabetical order.
	ListTags(ctx context.Context) ([]string, error)
}
