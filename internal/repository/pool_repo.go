package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

// TaskPoolRepo answers the allocator's "what has this worker not seen yet"
// queries and records seen items. The pool itself is read-mostly; uniqueness
// of (worker_id, item_id) is enforced by the store.
type TaskPoolRepo struct {
	pool *pgxpool.Pool
}

func NewTaskPoolRepo(pool *pgxpool.Pool) *TaskPoolRepo {
	return &TaskPoolRepo{pool: pool}
}

// MarkSeen appends a completed-task row. Written on approval and on
// replacement, so a replaced item is never reissued.
func (r *TaskPoolRepo) MarkSeen(ctx context.Context, tx pgx.Tx, workerID int64, itemID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO completed_tasks (worker_id, item_id) VALUES ($1, $2)
		ON CONFLICT (worker_id, item_id) DO NOTHING
	`, workerID, itemID)
	return err
}

// UntouchedCategoryIDs returns ids of non-empty categories in which the
// worker has completed no items. A single completion removes the whole
// category from this set, spreading workers across categories before any
// category repeats.
func (r *TaskPoolRepo) UntouchedCategoryIDs(ctx context.Context, tx pgx.Tx, workerID int64) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `
		SELECT tc.id
		FROM task_categories tc
		WHERE EXISTS (
			SELECT 1 FROM task_items i WHERE i.category_id = tc.id
		)
		AND NOT EXISTS (
			SELECT 1
			FROM completed_tasks c
			JOIN task_items i ON i.id = c.item_id
			WHERE c.worker_id = $1 AND i.category_id = tc.id
		)
	`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnseenItems returns items the worker has not completed. When
// excludeCategoryID is non-nil, items of that category are filtered out; when
// categoryID is non-nil, only that category is considered.
func (r *TaskPoolRepo) UnseenItems(ctx context.Context, tx pgx.Tx, workerID int64, categoryID, excludeCategoryID *uuid.UUID) ([]*models.TaskItem, error) {
	rows, err := tx.Query(ctx, `
		SELECT i.id, i.category_id, i.photo_ref, i.created_at
		FROM task_items i
		WHERE NOT EXISTS (
			SELECT 1 FROM completed_tasks c WHERE c.worker_id = $1 AND c.item_id = i.id
		)
		AND ($2::uuid IS NULL OR i.category_id = $2)
		AND ($3::uuid IS NULL OR i.category_id <> $3)
	`, workerID, categoryID, excludeCategoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*models.TaskItem
	for rows.Next() {
		var it models.TaskItem
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.PhotoRef, &it.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *TaskPoolRepo) GetItem(ctx context.Context, id uuid.UUID) (*models.TaskItem, error) {
	var it models.TaskItem
	err := r.pool.QueryRow(ctx, `
		SELECT id, category_id, photo_ref, created_at FROM task_items WHERE id = $1
	`, id).Scan(&it.ID, &it.CategoryID, &it.PhotoRef, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *TaskPoolRepo) GetItemTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.TaskItem, error) {
	var it models.TaskItem
	err := tx.QueryRow(ctx, `
		SELECT id, category_id, photo_ref, created_at FROM task_items WHERE id = $1
	`, id).Scan(&it.ID, &it.CategoryID, &it.PhotoRef, &it.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
