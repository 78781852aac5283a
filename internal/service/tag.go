package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sakif/blog-api/internal/repository"
)

// TagCache is the read-through cache in front of the tag list.
// cache.TagCache implements it with Redis.
type TagCache interface {
	GetTags(ctx context.Context) ([]string, bool, error)
	SetTags(ctx context.Context, tags []string) error
	Invalidate(ctx context.Context) error
}

type TagService struct {
	tags   repository.TagRepository
	cache  TagCache
	logger zerolog.Logger
}

// NewTagService wires the service. cache may be nil.
func NewTagService(tags repository.TagRepository, cache TagCache, logger zerolog.Logger) *TagService {
	return &TagService{
		tags:   tags,
		cache:  cache,
		logger: logger.With().Str("component", "tag_service").Logger(),
	}
}

// List returns every tag name, alphabetically. Cache errors are logged and
// the store is used instead.
func (s *TagService) List(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		tags, ok, err := s.cache.GetTags(ctx)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("tag cache read failed")
		case ok:
			return tags, nil
		}
	}

	tags, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/tag: listing tags: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetTags(ctx, tags); err != nil {
			s.logger.Warn().Err(err).Msg("tag cache write failed")
		}
	}
	return tags, nil
}

// Invalidate drops the cached list after the tag vocabulary may have grown.
func (s *TagService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("tag cache invalidation failed")
	}
}
