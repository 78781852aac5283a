// Package service holds the business rules of the blog.
//
// Handlers pass primitives in and get view records back:
//
//	handler (HTTP) → service (rules, validation) → repository (DB)
//	                         ↘ view (response records)
//
// Services know nothing about HTTP. They return apperror values, which the
// handler layer maps to status codes.
package service

import (
	"context"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
	"github.com/sakif/blog-api/internal/repository"
	"github.com/sakif/blog-api/internal/view"
)

// Pagination bounds for article listings.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// clock returns the current time. Services keep one as a field so tests can
// make timestamps deterministic.
type clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// pageOptions checks limit and offset. A zero limit means DefaultLimit.
func pageOptions(limit, offset int) (repository.ListOptions, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	fields := map[string]string{}
	if limit < 1 || limit > MaxLimit {
		fields["limit"] = "must be between 1 and 100"
	}
	if offset < 0 {
		fields["offset"] = "must not be negative"
	}
	if len(fields) > 0 {
		return repository.ListOptions{}, apperror.Invalid(fields)
	}
	return repository.ListOptions{Limit: limit, Offset: offset}, nil
}

// profilesFor loads the given users and, for a signed-in viewer, which of
// them the viewer follows. Two queries regardless of len(userIDs).
func profilesFor(
	ctx context.Context,
	users repository.UserRepository,
	follows repository.FollowRepository,
	viewerID string,
	userIDs []string,
) (map[string]view.Profile, error) {
	ids := uniqueStrings(userIDs)
	found, err := users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	following := map[string]bool{}
	if viewerID != "" && len(ids) > 0 {
		following, err = follows.FollowedAmong(ctx, viewerID, ids)
		if err != nil {
			return nil, err
		}
	}

	profiles := make(map[string]view.Profile, len(found))
	for id, u := range found {
		profiles[id] = view.NewProfile(u, following[id])
	}
	return profiles, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func userIDs[T any](items []T, id func(T) string) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = id(item)
	}
	return ids
}

func articleAuthor(a model.Article) string { return a.AuthorID }
func commentAuthor(c model.Comment) string { return c.AuthorID }
