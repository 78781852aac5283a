package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
	"github.com/sakif/blog-api/internal/view"
)

type CommentService struct {
	articles repository.ArticleRepository
	comments repository.CommentRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	logger   zerolog.Logger
	now      clock
}

func NewCommentService(
	articles repository.ArticleRepository,
	comments repository.CommentRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	logger zerolog.Logger,
) *CommentService {
	return &CommentService{
		articles: articles,
		comments: comments,
		users:    users,
		follows:  follows,
		logger:   logger.With().Str("component", "comment_service").Logger(),
		now:      systemClock,
	}
}

// List returns the article's comments, newest first.
func (s *CommentService) List(ctx context.Context, slug, viewerID string) ([]view.Comment, error) {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListComments(ctx, article.ID)
	if err != nil {
		return nil, fmt.Errorf("service/comment: listing comments on %s: %w", slug, err)
	}

	authors, err := profilesFor(ctx, s.users, s.follows, viewerID, userIDs(comments, commentAuthor))
	if err != nil {
		return nil, fmt.Errorf("service/comment: loading authors: %w", err)
	}

	views := make([]view.Comment, 0, len(comments))
	for i := range comments {
		c := &comments[i]
		author, ok := authors[c.AuthorID]
		if !ok {
			return nil, fmt.Errorf("service/comment: author %s of comment %d is missing", c.AuthorID, c.ID)
		}
		views = append(views, view.NewComment(c, author))
	}
	return views, nil
}

func (s *CommentService) Create(ctx context.Context, slug, authorID, body string) (*view.Comment, error) {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperror.ValidationFailed("body", "can't be blank")
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &model.Comment{
		Body:      body,
		ArticleID: article.ID,
		AuthorID:  author.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("service/comment: creating comment on %s: %w", slug, err)
	}

	s.logger.Info().Int64("commentID", comment.ID).Str("articleID", article.ID).Msg("comment created")

	result := view.NewComment(comment, view.NewProfile(author, false))
	return &result, nil
}

// Delete removes a comment. The comment must belong to the article named by
// slug; a comment id from another article is reported as not found.
func (s *CommentService) Delete(ctx context.Context, slug string, commentID int64, actorID string) error {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return err
	}

	comment, err := s.comments.GetComment(ctx, article.ID, commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != actorID {
		return apperror.Forbidden("You can only delete your own comments")
	}

	if err := s.comments.DeleteComment(ctx, comment.ID); err != nil {
		return fmt.Errorf("service/comment: deleting comment %d: %w", commentID, err)
	}
	s.logger.Info().Int64("commentID", commentID).Str("articleID", article.ID).Msg("comment deleted")
	return nil
}
