package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

func (r *ContentRepo) Get(ctx context.Context, key string) (*models.Content, error) {
	var c models.Content
	err := r.pool.QueryRow(ctx, `
		SELECT key, body, updated_at FROM contents WHERE key = $1
	`, key).Scan(&c.Key, &c.Body, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContentRepo) Upsert(ctx context.Context, key, body string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contents (key, body) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, updated_at = now()
	`, key, body)
	return err
}

func (r *ContentRepo) List(ctx context.Context) ([]*models.Content, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, body, updated_at FROM contents ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Content
	for rows.Next() {
		var c models.Content
		if err := rows.Scan(&c.Key, &c.Body, &c.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}
