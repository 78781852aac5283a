package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
)

const articleColumns = `a.id, a.slug, a.title, a.description, a.body, a.author_id, a.favorites_count, a.created_at, a.updated_at`

// CreateArticle inserts the article, creates any tag rows that do not exist
// yet and links every tag to the article, all in one transaction. tags must
// already be normalized and de-duplicated.
func (s *Store) CreateArticle(ctx context.Context, article *model.Article, tags []string) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now()
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = article.CreatedAt
	}

	return s.withTx(ctx, func(tx runner) error {
		_, err := tx.exec(ctx,
			`INSERT INTO articles (id, slug, title, description, body, author_id, favorites_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
			article.ID,
			article.Slug,
			article.Title,
			article.Description,
			article.Body,
			article.AuthorID,
			normalizeTime(article.CreatedAt),
			normalizeTime(article.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("article", article.Slug)
			}
			return fmt.Errorf("sqlstore: inserting article %s: %w", article.Slug, err)
		}
		article.FavoritesCount = 0

		return linkTags(ctx, tx, article.ID, tags)
	})
}

// linkTags upserts tag rows by name, then inserts the join rows.
func linkTags(ctx context.Context, tx runner, articleID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	for _, name := range tags {
		if _, err := tx.exec(ctx,
			`INSERT INTO tags (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name,
		); err != nil {
			return fmt.Errorf("sqlstore: inserting tag %q: %w", name, err)
		}
	}

	rows, err := tx.query(ctx,
		`SELECT id FROM tags WHERE name IN (`+placeholders(len(tags))+`)`,
		stringArgs(tags)...,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: resolving tag ids: %w", err)
	}
	var tagIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("sqlstore: scanning tag id: %w", err)
		}
		tagIDs = append(tagIDs, id)
	}
	// Close before the inserts below: SQLite runs on a single connection.
	if err := rows.Close(); err != nil {
		return fmt.Errorf("sqlstore: closing tag rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlstore: iterating tag ids: %w", err)
	}

	for _, tagID := range tagIDs {
		if _, err := tx.exec(ctx,
			`INSERT INTO article_tags (article_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			articleID, tagID,
		); err != nil {
			return fmt.Errorf("sqlstore: linking tag %d: %w", tagID, err)
		}
	}
	return nil
}

func (s *Store) GetArticleBySlug(ctx context.Context, slug string) (*model.Article, error) {
	row := s.db().queryRow(ctx,
		`SELECT `+articleColumns+` FROM articles a WHERE a.slug = ?`, slug)

	a, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("article", slug)
		}
		return nil, fmt.Errorf("sqlstore: getting article %s: %w", slug, err)
	}
	return a, nil
}

func (s *Store) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	if err := s.db().queryRow(ctx,
		`SELECT COUNT(*) FROM articles WHERE slug = ?`, slug,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("sqlstore: checking slug %s: %w", slug, err)
	}
	return count > 0, nil
}

// ListArticles returns one page of articles matching filter, newest first,
// plus the number of matches before pagination. Each filter is a subquery on
// the article or author id so the page query never needs DISTINCT.
func (s *Store) ListArticles(ctx context.Context, filter repository.ArticleFilter) ([]model.Article, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Tag != "" {
		where = append(where, `a.id IN (
			SELECT atg.article_id FROM article_tags atg JOIN tags t ON t.id = atg.tag_id WHERE t.name = ?)`)
		args = append(args, filter.Tag)
	}
	if filter.Author != "" {
		where = append(where, `a.author_id IN (SELECT u.id FROM users u WHERE u.username = ?)`)
		args = append(args, filter.Author)
	}
	if filter.FavoritedBy != "" {
		where = append(where, `a.id IN (
			SELECT f.article_id FROM favorites f JOIN users u ON u.id = f.user_id WHERE u.username = ?)`)
		args = append(args, filter.FavoritedBy)
	}
	if filter.FollowerID != "" {
		where = append(where, `a.author_id IN (SELECT fo.followed_id FROM follows fo WHERE fo.follower_id = ?)`)
		args = append(args, filter.FollowerID)
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = " WHERE " + strings.Join(where, " AND ")
	}

	db := s.db()

	var total int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM articles a`+whereSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: counting articles: %w", err)
	}

	pageArgs := append(append([]any{}, args...), filter.Limit, filter.Offset)
	rows, err := db.query(ctx,
		`SELECT `+articleColumns+` FROM articles a`+whereSQL+`
		 ORDER BY a.created_at DESC, a.id DESC
		 LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("sqlstore: listing articles: %w", err)
	}
	defer rows.Close()

	articles := make([]model.Article, 0, filter.Limit)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("sqlstore: scanning article: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("sqlstore: iterating articles: %w", err)
	}

	return articles, total, nil
}

// UpdateArticle writes slug, title, description, body and updated_at.
// favorites_count is not written here; only the favorite
// operations change it.
func (s *Store) UpdateArticle(ctx context.Context, article *model.Article) error {
	result, err := s.db().exec(ctx,
		`UPDATE articles SET slug = ?, title = ?, description = ?, body = ?, updated_at = ?
		 WHERE id = ?`,
		article.Slug,
		article.Title,
		article.Description,
		article.Body,
		normalizeTime(article.UpdatedAt),
		article.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("article", article.Slug)
		}
		return fmt.Errorf("sqlstore: updating article %s: %w", article.ID, err)
	}

	changed, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !changed {
		return apperror.NotFound("article", article.Slug)
	}
	return nil
}

// DeleteArticle removes the article; tag links, favorites and comments go
// with it through ON DELETE CASCADE.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	result, err := s.db().exec(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting article %s: %w", id, err)
	}

	deleted, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("article", id)
	}
	return nil
}

// TagsFor loads the tag names of many articles in one query.
func (s *Store) TagsFor(ctx context.Context, articleIDs []string) (map[string][]string, error) {
	tags := make(map[string][]string, len(articleIDs))
	if len(articleIDs) == 0 {
		return tags, nil
	}

	rows, err := s.db().query(ctx,
		`SELECT atg.article_id, t.name
		 FROM article_tags atg JOIN tags t ON t.id = atg.tag_id
		 WHERE atg.article_id IN (`+placeholders(len(articleIDs))+`)
		 ORDER BY atg.article_id, t.name`,
		stringArgs(articleIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing article tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var articleID, name string
		if err := rows.Scan(&articleID, &name); err != nil {
			return nil, fmt.Errorf("sqlstore: scanning article tag: %w", err)
		}
		tags[articleID] = append(tags[articleID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating article tags: %w", err)
	}
	return tags, nil
}

func scanArticle(row rowScanner) (*model.Article, error) {
	var a model.Article
	err := row.Scan(
		&a.ID,
		&a.Slug,
		&a.Title,
		&a.Description,
		&a.Body,
		&a.AuthorID,
		&a.FavoritesCount,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}
