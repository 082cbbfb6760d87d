package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/reviewcrew/backend/internal/cache"
	"github.com/reviewcrew/backend/internal/models"
)

// ErrCategoryNotEmpty is returned when deleting a category that still owns items.
var ErrCategoryNotEmpty = errors.New("category still owns task items")

type Service interface {
	CreateCategory(ctx context.Context, name, description string) (*models.TaskCategory, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.TaskCategory, error)
	ListCategories(ctx context.Context) ([]*models.TaskCategory, error)
	CreateItem(ctx context.Context, categoryID uuid.UUID, photoRef string) (*models.TaskItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context, categoryID uuid.UUID) ([]*models.TaskItem, error)
}

type service struct {
	repo  *Repository
	cache *cache.Cache
}

// NewService wires the repository with the instance cache used for the
// read-heavy category lookups on the bot's display path.
func NewService(repo *Repository, c *cache.Cache) *service {
	return &service{repo: repo, cache: c}
}

var _ Service = (*service)(nil)

func categoryCacheKey(id uuid.UUID) string {
	return "category:" + id.String()
}

func (s *service) CreateCategory(ctx context.Context, name, description string) (*models.TaskCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("category name is required")
	}
	c := &models.TaskCategory{ID: uuid.New(), Name: name, Description: description}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, name, description string) error {
	if err := s.repo.UpdateCategory(ctx, &models.TaskCategory{ID: id, Name: name, Description: description}); err != nil {
		return err
	}
	s.cache.Invalidate(categoryCacheKey(id))
	return nil
}

// DeleteCategory refuses while the category still owns items, so the task
// pool never references a dangling category.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	n, err := s.repo.CountItems(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryNotEmpty
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(categoryCacheKey(id))
	return nil
}

func (s *service) GetCategory(ctx context.Context, id uuid.UUID) (*models.TaskCategory, error) {
	if v, ok := s.cache.Get(categoryCacheKey(id)); ok {
		return v.(*models.TaskCategory), nil
	}
	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(categoryCacheKey(id), c)
	return c, nil
}

func (s *service) ListCategories(ctx context.Context) ([]*models.TaskCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *service) CreateItem(ctx context.Context, categoryID uuid.UUID, photoRef string) (*models.TaskItem, error) {
	if photoRef == "" {
		return nil, errors.New("photo_ref is required")
	}
	it := &models.TaskItem{ID: uuid.New(), CategoryID: categoryID, PhotoRef: photoRef}
	if err := s.repo.CreateItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteItem(ctx, id)
}

func (s *service) ListItems(ctx context.Context, categoryID uuid.UUID) ([]*models.TaskItem, error) {
	return s.repo.ListItems(ctx, categoryID)
}
