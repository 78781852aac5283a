package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
)

const commentColumns = `id, body, article_id, author_id, created_at, updated_at`

// CreateComment inserts the comment and sets its generated ID.
func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now()
	}
	if comment.UpdatedAt.IsZero() {
		comment.UpdatedAt = comment.CreatedAt
	}

	err := s.db().queryRow(ctx,
		`INSERT INTO comments (body, article_id, author_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`,
		comment.Body,
		comment.ArticleID,
		comment.AuthorID,
		normalizeTime(comment.CreatedAt),
		normalizeTime(comment.UpdatedAt),
	).Scan(&comment.ID)
	if err != nil {
		return fmt.Errorf("sqlstore: inserting comment on article %s: %w", comment.ArticleID, err)
	}
	return nil
}

// ListComments returns the article's comments newest first. IDs grow with
// insertion order, so they break created_at ties.
func (s *Store) ListComments(ctx context.Context, articleID string) ([]model.Comment, error) {
	rows, err := s.db().query(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE article_id = ?
		 ORDER BY created_at DESC, id DESC`,
		articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing comments of %s: %w", articleID, err)
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scanning comment: %w", err)
		}
		comments = append(comments, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: iterating comments: %w", err)
	}
	return comments, nil
}

// GetComment finds a comment by id within one article. A comment that exists
// on a different article is reported as not found.
func (s *Store) GetComment(ctx context.Context, articleID string, id int64) (*model.Comment, error) {
	row := s.db().queryRow(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ? AND article_id = ?`,
		id, articleID,
	)
	c, err := scanComment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("comment", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlstore: getting comment %d: %w", id, err)
	}
	return c, nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	result, err := s.db().exec(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlstore: deleting comment %d: %w", id, err)
	}
	deleted, err := affectedOne(result)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("comment", strconv.FormatInt(id, 10))
	}
	return nil
}

func scanComment(row rowScanner) (*model.Comment, error) {
	var c model.Comment
	if err := row.Scan(&c.ID, &c.Body, &c.ArticleID, &c.AuthorID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
