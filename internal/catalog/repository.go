package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateCategory(ctx context.Context, c *models.TaskCategory) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO task_categories (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, c.ID, c.Name, c.Description).Scan(&c.CreatedAt)
}

func (r *Repository) GetCategory(ctx context.Context, id uuid.UUID) (*models.TaskCategory, error) {
	var c models.TaskCategory
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM task_categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c *models.TaskCategory) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE task_categories SET name = $2, description = $3 WHERE id = $1
	`, c.ID, c.Name, c.Description)
	return err
}

func (r *Repository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM task_categories WHERE id = $1`, id)
	return err
}

func (r *Repository) ListCategories(ctx context.Context) ([]*models.TaskCategory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at FROM task_categories ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.TaskCategory
	for rows.Next() {
		var c models.TaskCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

func (r *Repository) CountItems(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM task_items WHERE category_id = $1
	`, categoryID).Scan(&n)
	return n, err
}

func (r *Repository) CreateItem(ctx context.Context, it *models.TaskItem) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO task_items (id, category_id, photo_ref)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, it.ID, it.CategoryID, it.PhotoRef).Scan(&it.CreatedAt)
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM task_items WHERE id = $1`, id)
	return err
}

func (r *Repository) ListItems(ctx context.Context, categoryID uuid.UUID) ([]*models.TaskItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, category_id, photo_ref, created_at FROM task_items WHERE category_id = $1 ORDER BY created_at
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.TaskItem
	for rows.Next() {
		var it models.TaskItem
		if err := rows.Scan(&it.ID, &it.CategoryID, &it.PhotoRef, &it.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &it)
	}
	return list, rows.Err()
}
