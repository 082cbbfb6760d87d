package services

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reviewcrew/backend/internal/models"
)

// AllocatorPoolRepo is the minimal task-pool interface for allocation.
type AllocatorPoolRepo interface {
	UntouchedCategoryIDs(ctx context.Context, tx pgx.Tx, workerID int64) ([]uuid.UUID, error)
	UnseenItems(ctx context.Context, tx pgx.Tx, workerID int64, categoryID, excludeCategoryID *uuid.UUID) ([]*models.TaskItem, error)
}

// Allocator selects an unseen task item for a worker. It prefers categories
// the worker has completed nothing in, then falls back to any unseen item
// outside the excluded category, then to any unseen item at all. Pure
// selection; the caller owns the transaction and all side effects.
type Allocator struct {
	Pool AllocatorPoolRepo
}

func NewAllocator(pool AllocatorPoolRepo) *Allocator {
	return &Allocator{Pool: pool}
}

// Allocate picks an item for the worker. excludeCategoryID is set on the
// replace path to guarantee a different category than the one just abandoned.
// Returns ErrNoTaskAvailable only when the worker has seen every item.
func (a *Allocator) Allocate(ctx context.Context, tx pgx.Tx, workerID int64, excludeCategoryID *uuid.UUID) (*models.TaskItem, error) {
	cats, err := a.Pool.UntouchedCategoryIDs(ctx, tx, workerID)
	if err != nil {
		return nil, fmt.Errorf("untouched categories: %w", err)
	}
	if excludeCategoryID != nil {
		filtered := cats[:0]
		for _, id := range cats {
			if id != *excludeCategoryID {
				filtered = append(filtered, id)
			}
		}
		cats = filtered
	}

	if len(cats) > 0 {
		catID := cats[rand.IntN(len(cats))]
		items, err := a.Pool.UnseenItems(ctx, tx, workerID, &catID, nil)
		if err != nil {
			return nil, fmt.Errorf("unseen items in category: %w", err)
		}
		if len(items) > 0 {
			return items[rand.IntN(len(items))], nil
		}
	}

	// Every category is already touched (or only the excluded one is not):
	// widen to any unseen item, dropping the exclusion as the last step.
	items, err := a.Pool.UnseenItems(ctx, tx, workerID, nil, excludeCategoryID)
	if err != nil {
		return nil, fmt.Errorf("unseen items: %w", err)
	}
	if len(items) == 0 && excludeCategoryID != nil {
		items, err = a.Pool.UnseenItems(ctx, tx, workerID, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("unseen items ignoring exclusion: %w", err)
		}
	}
	if len(items) == 0 {
		return nil, ErrNoTaskAvailable
	}
	return items[rand.IntN(len(items))], nil
}
