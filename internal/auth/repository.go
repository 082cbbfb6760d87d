package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new admin and returns the created record.
func (r *Repository) Create(ctx context.Context, email, passwordHash, displayName string) (*Admin, error) {
	var id uuid.UUID
	row := r.pool.QueryRow(ctx, `
		INSERT INTO admins (id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, uuid.New(), email, passwordHash, displayName)
	if err := row.Scan(&id); err != nil {
		return nil, err
	}
	return &Admin{ID: id, Email: email, DisplayName: displayName}, nil
}

// GetByEmail returns the admin and password hash for login. Returns nil if
// not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Admin, string, error) {
	var a Admin
	var passwordHash string
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash FROM admins WHERE email = $1
	`, email)
	if err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &passwordHash); err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", nil
		}
		return nil, "", err
	}
	return &a, passwordHash, nil
}

func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}
