package services

import (
	"context"

	"github.com/reviewcrew/backend/internal/models"
)

// ContentRepo is the persistent store behind the editable texts.
type ContentRepo interface {
	Get(ctx context.Context, key string) (*models.Content, error)
	Upsert(ctx context.Context, key, body string) error
	List(ctx context.Context) ([]*models.Content, error)
}

// ContentCache is the instance cache in front of content reads.
type ContentCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Invalidate(key string)
}

// Contents serves the editable bot texts (instructions, FAQ) through a
// read-through cache. Every bot read lands here; the admin's Upsert
// invalidates the cached copy.
type Contents struct {
	Repo  ContentRepo
	Cache ContentCache
}

func NewContents(repo ContentRepo, c ContentCache) *Contents {
	return &Contents{Repo: repo, Cache: c}
}

func contentCacheKey(key string) string {
	return "content:" + key
}

func (s *Contents) Get(ctx context.Context, key string) (*models.Content, error) {
	if v, ok := s.Cache.Get(contentCacheKey(key)); ok {
		return v.(*models.Content), nil
	}
	c, err := s.Repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(contentCacheKey(key), c)
	return c, nil
}

func (s *Contents) Upsert(ctx context.Context, key, body string) error {
	if err := s.Repo.Upsert(ctx, key, body); err != nil {
		return err
	}
	s.Cache.Invalidate(contentCacheKey(key))
	return nil
}

func (s *Contents) List(ctx context.Context) ([]*models.Content, error) {
	return s.Repo.List(ctx)
}
