package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema is written for SQLite; migrate patches the two engine-specific
// spellings for PostgreSQL. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		bio           TEXT NOT NULL DEFAULT '',
		image         TEXT NOT NULL DEFAULT '',
		github_id     BIGINT UNIQUE,
		created_at    DATETIME NOT NULL,
		updated_at    DATETIME NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		followed_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  DATETIME NOT NULL,
		PRIMARY KEY (follower_id, followed_id),
		CHECK (follower_id <> followed_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_followed_id ON follows(followed_id)`,

	`CREATE TABLE IF NOT EXISTS articles (
		id              TEXT PRIMARY KEY,
		slug            TEXT NOT NULL UNIQUE,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL,
		body            TEXT NOT NULL,
		author_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		favorites_count INTEGER NOT NULL DEFAULT 0 CHECK (favorites_count >= 0),
		created_at      DATETIME NOT NULL,
		updated_at      DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_author_id ON articles(author_id)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,

	`CREATE TABLE IF NOT EXISTS article_tags (
		article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		tag_id     BIGINT NOT NULL REFERENCES tags(id),
		PRIMARY KEY (article_id, tag_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_article_tags_tag_id ON article_tags(tag_id)`,

	`CREATE TABLE IF NOT EXISTS favorites (
		article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (article_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites(user_id)`,

	`CREATE TABLE IF NOT EXISTS comments (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		body       TEXT NOT NULL,
		article_id TEXT NOT NULL REFERENCES articles(id) ON DELETE CASCADE,
		author_id  TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_article_id ON comments(article_id)`,
}

var postgresSpelling = strings.NewReplacer(
	"INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY",
	"DATETIME", "TIMESTAMPTZ",
)

func (s *Store) migrate(ctx context.Context) error {
	db := s.db()
	for i, stmt := range schema {
		if s.postgres {
			stmt = postgresSpelling.Replace(stmt)
		}
		if _, err := db.exec(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}
	return nil
}
