// Package view builds the response records the API returns.
//
// A view is assembled from persisted entities plus flags that depend on who
// is asking (favorited, following). Views are plain values created fresh per
// request; entities are never modified to carry viewer state.
package view

import (
	"time"

	"github.com/sakif/blog-api/internal/model"
)

// Profile is a user as seen by a viewer.
type Profile struct {
	Username  string `json:"username"`
	Bio       string `json:"bio"`
	Image     string `json:"image"`
	Following bool   `json:"following"`
}

func NewProfile(u *model.User, following bool) Profile {
	return Profile{
		Username:  u.Username,
		Bio:       u.Bio,
		Image:     u.Image,
		Following: following,
	}
}

type Article struct {
	Slug           string    `json:"slug"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Body           string    `json:"body"`
	TagList        []string  `json:"tagList"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Favorited      bool      `json:"favorited"`
	FavoritesCount int       `json:"favoritesCount"`
	Author         Profile   `json:"author"`
}

// NewArticle copies tags so later changes to the caller's slice cannot leak
// into the view. A nil tag list becomes an empty JSON array.
func NewArticle(a *model.Article, tags []string, author Profile, favorited bool) Article {
	tagList := make([]string, len(tags))
	copy(tagList, tags)

	return Article{
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        tagList,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		Favorited:      favorited,
		FavoritesCount: a.FavoritesCount,
		Author:         author,
	}
}

// ArticleList is one page of articles and the size of the whole result.
type ArticleList struct {
	Articles      []Article `json:"articles"`
	ArticlesCount int       `json:"articlesCount"`
}

type Comment struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Body      string    `json:"body"`
	Author    Profile   `json:"author"`
}

func NewComment(c *model.Comment, author Profile) Comment {
	return Comment{
		ID:        c.ID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Body:      c.Body,
		Author:    author,
	}
}

// User is the authenticated user's own record, including a fresh token.
type User struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

func NewUser(u *model.User, token string) User {
	return User{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}
}
