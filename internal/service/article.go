package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/normalize"
	"github.com/sakif/blog-api/internal/repository"
	"github.com/sakif/blog-api/internal/view"
)

// fallbackSlug is used when a title normalizes to nothing, e.g. "???".
const fallbackSlug = "article"

// ArticleQuery filters an article listing. Empty filters are ignored.
type ArticleQuery struct {
	Tag       string
	Author    string // author username
	Favorited string // username of a user who favorited the article
	Limit     int
	Offset    int
}

type ArticleInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Body        string   `json:"body"`
	TagList     []string `json:"tagList"`
}

func (in ArticleInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, required, validation.RuneLength(1, 255).Error("must be at most 255 characters")),
		validation.Field(&in.Description, required),
		validation.Field(&in.Body, required),
	)
}

// ArticlePatch is a partial update. nil fields are left alone.
type ArticlePatch struct {
	Title       *string
	Description *string
	Body        *string
}

// ArticleService owns the article aggregate: the article row, its tag links
// and its favorites counter.
type ArticleService struct {
	articles repository.ArticleRepository
	users    repository.UserRepository
	follows  repository.FollowRepository
	tags     *TagService
	logger   zerolog.Logger
	now      clock
}

// NewArticleService wires the service. tags may be nil, in which case no
// tag cache is invalidated on create.
func NewArticleService(
	articles repository.ArticleRepository,
	users repository.UserRepository,
	follows repository.FollowRepository,
	tags *TagService,
	logger zerolog.Logger,
) *ArticleService {
	return &ArticleService{
		articles: articles,
		users:    users,
		follows:  follows,
		tags:     tags,
		logger:   logger.With().Str("component", "article_service").Logger(),
		now:      systemClock,
	}
}

// List returns one page of articles matching q, newest first.
func (s *ArticleService) List(ctx context.Context, viewerID string, q ArticleQuery) (*view.ArticleList, error) {
	page, err := pageOptions(q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	return s.list(ctx, viewerID, repository.ArticleFilter{
		Tag:         normalize.Tag(q.Tag),
		Author:      normalizeUsername(q.Author),
		FavoritedBy: normalizeUsername(q.Favorited),
		ListOptions: page,
	})
}

// Feed lists articles written by users the viewer follows.
func (s *ArticleService) Feed(ctx context.Context, viewerID string, limit, offset int) (*view.ArticleList, error) {
	if viewerID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}
	page, err := pageOptions(limit, offset)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, viewerID, repository.ArticleFilter{FollowerID: viewerID, ListOptions: page})
}

func (s *ArticleService) list(ctx context.Context, viewerID string, filter repository.ArticleFilter) (*view.ArticleList, error) {
	articles, total, err := s.articles.ListArticles(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/article: listing articles: %w", err)
	}

	views, err := s.decorate(ctx, viewerID, articles)
	if err != nil {
		return nil, err
	}
	return &view.ArticleList{Articles: views, ArticlesCount: total}, nil
}

func (s *ArticleService) GetBySlug(ctx context.Context, slug, viewerID string) (*view.Article, error) {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.decorateOne(ctx, viewerID, article)
}

// Create validates input, picks a free slug and stores the article with its
// tags. The new article has no favorites and the author never follows
// themselves, so both flags start false.
func (s *ArticleService) Create(ctx context.Context, authorID string, in ArticleInput) (*view.Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Body = strings.TrimSpace(in.Body)
	if err := invalid(in.Validate()); err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, in.Title, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	tags := normalize.Tags(in.TagList)
	article := &model.Article{
		Slug:        slug,
		Title:       in.Title,
		Description: in.Description,
		Body:        in.Body,
		AuthorID:    author.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.articles.CreateArticle(ctx, article, tags); err != nil {
		return nil, fmt.Errorf("service/article: creating article: %w", err)
	}

	if s.tags != nil {
		s.tags.Invalidate(ctx)
	}

	s.logger.Info().
		Str("articleID", article.ID).
		Str("slug", article.Slug).
		Str("authorID", author.ID).
		Msg("article created")

	result := view.NewArticle(article, tags, view.NewProfile(author, false), false)
	return &result, nil
}

// Update applies the supplied fields. A changed title regenerates the slug.
// When nothing actually changes nothing is written and updatedAt stays put.
func (s *ArticleService) Update(ctx context.Context, slug, actorID string, patch ArticlePatch) (*view.Article, error) {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if article.AuthorID != actorID {
		return nil, apperror.Forbidden("You can only update your own articles")
	}

	fields := map[string]string{}
	title := trimmedPatch(patch.Title, "title", fields)
	description := trimmedPatch(patch.Description, "description", fields)
	body := trimmedPatch(patch.Body, "body", fields)
	if title != nil && len([]rune(*title)) > 255 {
		fields["title"] = "must be at most 255 characters"
	}
	if len(fields) > 0 {
		return nil, apperror.Invalid(fields)
	}

	changed := false
	if title != nil && *title != article.Title {
		newSlug, err := s.uniqueSlug(ctx, *title, article.Slug)
		if err != nil {
			return nil, err
		}
		article.Title = *title
		article.Slug = newSlug
		changed = true
	}
	if description != nil && *description != article.Description {
		article.Description = *description
		changed = true
	}
	if body != nil && *body != article.Body {
		article.Body = *body
		changed = true
	}

	if changed {
		article.UpdatedAt = s.now()
		if err := s.articles.UpdateArticle(ctx, article); err != nil {
			return nil, fmt.Errorf("service/article: updating %s: %w", slug, err)
		}
		s.logger.Info().Str("articleID", article.ID).Str("slug", article.Slug).Msg("article updated")
	}

	return s.decorateOne(ctx, actorID, article)
}

// trimmedPatch trims a supplied field and records a blank one in fields.
func trimmedPatch(value *string, name string, fields map[string]string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		fields[name] = "can't be blank"
	}
	return &trimmed
}

func (s *ArticleService) Delete(ctx context.Context, slug, actorID string) error {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if article.AuthorID != actorID {
		return apperror.Forbidden("You can only delete your own articles")
	}

	if err := s.articles.DeleteArticle(ctx, article.ID); err != nil {
		return fmt.Errorf("service/article: deleting %s: %w", slug, err)
	}
	s.logger.Info().Str("articleID", article.ID).Str("slug", slug).Msg("article deleted")
	return nil
}

// Favorite is idempotent: favoriting twice leaves one row and a counter
// raised once.
func (s *ArticleService) Favorite(ctx context.Context, slug, actorID string) (*view.Article, error) {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if _, err := s.articles.AddFavorite(ctx, article.ID, actorID); err != nil {
		return nil, fmt.Errorf("service/article: favoriting %s: %w", slug, err)
	}
	return s.reload(ctx, slug, actorID)
}

// Unfavorite is idempotent. A counter that would go below zero means the
// store was already inconsistent; the change is rolled back and the fault
// surfaces as an internal error.
func (s *ArticleService) Unfavorite(ctx context.Context, slug, actorID string) (*view.Article, error) {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if _, err := s.articles.RemoveFavorite(ctx, article.ID, actorID); err != nil {
		if errors.Is(err, repository.ErrCounterUnderflow) {
			s.logger.Error().Err(err).Str("articleID", article.ID).Msg("favorites counter out of sync")
		}
		return nil, fmt.Errorf("service/article: unfavoriting %s: %w", slug, err)
	}
	return s.reload(ctx, slug, actorID)
}

// reload reads the article again so the returned counter is the stored one.
func (s *ArticleService) reload(ctx context.Context, slug, viewerID string) (*view.Article, error) {
	article, err := s.articles.GetArticleBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.decorateOne(ctx, viewerID, article)
}

// uniqueSlug derives a slug from title and appends -1, -2, ... until it is
// free. current is the article's own slug on update; it counts as free.
func (s *ArticleService) uniqueSlug(ctx context.Context, title, current string) (string, error) {
	base := normalize.Slug(title)
	if base == "" {
		base = fallbackSlug
	}

	candidate := base
	for i := 1; ; i++ {
		if candidate == current {
			return candidate, nil
		}
		taken, err := s.articles.SlugExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("service/article: checking slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *ArticleService) decorateOne(ctx context.Context, viewerID string, article *model.Article) (*view.Article, error) {
	views, err := s.decorate(ctx, viewerID, []model.Article{*article})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// decorate turns a page of articles into views. Authors, tag lists and the
// viewer's favorites and follows are each loaded with one batched query.
func (s *ArticleService) decorate(ctx context.Context, viewerID string, articles []model.Article) ([]view.Article, error) {
	views := make([]view.Article, 0, len(articles))
	if len(articles) == 0 {
		return views, nil
	}

	articleIDs := make([]string, len(articles))
	for i := range articles {
		articleIDs[i] = articles[i].ID
	}

	authors, err := profilesFor(ctx, s.users, s.follows, viewerID, userIDs(articles, articleAuthor))
	if err != nil {
		return nil, fmt.Errorf("service/article: loading authors: %w", err)
	}

	tags, err := s.articles.TagsFor(ctx, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("service/article: loading tags: %w", err)
	}

	favorited := map[string]bool{}
	if viewerID != "" {
		favorited, err = s.articles.FavoritedAmong(ctx, viewerID, articleIDs)
		if err != nil {
			return nil, fmt.Errorf("service/article: loading favorites: %w", err)
		}
	}

	for i := range articles {
		a := &articles[i]
		author, ok := authors[a.AuthorID]
		if !ok {
			return nil, fmt.Errorf("service/article: author %s of %s is missing", a.AuthorID, a.Slug)
		}
		views = append(views, view.NewArticle(a, tags[a.ID], author, favorited[a.ID]))
	}
	return views, nil
}
