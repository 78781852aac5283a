package model

import "time"

// Article is a published post.
//
// FavoritesCount is a denormalized count of the favorites rows for this
// article. It only ever changes inside the same transaction that inserts or
// deletes one of those rows.
type Article struct {
	ID             string    `db:"id"`
	Slug           string    `db:"slug"`
	Title          string    `db:"title"`
	Description    string    `db:"description"`
	Body           string    `db:"body"`
	AuthorID       string    `db:"author_id"`
	FavoritesCount int       `db:"favorites_count"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Comment belongs to exactly one article and is removed with it.
type Comment struct {
	ID        int64     `db:"id"`
	Body      string    `db:"body"`
	ArticleID string    `db:"article_id"`
	AuthorID  string    `db:"author_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Tag names are unique, lower-case and hyphenated. Tags are never deleted.
type Tag struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}
