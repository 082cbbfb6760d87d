package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

type WorkerRepo struct {
	pool *pgxpool.Pool
}

func NewWorkerRepo(pool *pgxpool.Pool) *WorkerRepo {
	return &WorkerRepo{pool: pool}
}

// Ensure inserts the worker on first contact and returns the stored row
// either way.
func (r *WorkerRepo) Ensure(ctx context.Context, id int64, displayName string) (*models.Worker, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO workers (id, display_name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING
	`, id, displayName)
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *WorkerRepo) GetByID(ctx context.Context, id int64) (*models.Worker, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `
		SELECT id, display_name, phone, balance, total_earned, tasks_completed, successful_referrals, is_ambassador, created_at, updated_at
		FROM workers WHERE id = $1
	`, id))
}

// GetByIDForUpdate locks the worker row for update. Call within a transaction.
func (r *WorkerRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Worker, error) {
	return r.scanOne(tx.QueryRow(ctx, `
		SELECT id, display_name, phone, balance, total_earned, tasks_completed, successful_referrals, is_ambassador, created_at, updated_at
		FROM workers WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *WorkerRepo) List(ctx context.Context) ([]*models.Worker, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, display_name, phone, balance, total_earned, tasks_completed, successful_referrals, is_ambassador, created_at, updated_at
		FROM workers ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Worker
	for rows.Next() {
		var w models.Worker
		if err := rows.Scan(&w.ID, &w.DisplayName, &w.Phone, &w.Balance, &w.TotalEarned, &w.TasksCompleted, &w.SuccessfulReferrals, &w.IsAmbassador, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

func (r *WorkerRepo) UpdateProfile(ctx context.Context, id int64, displayName, phone string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE workers SET display_name = $2, phone = $3, updated_at = now() WHERE id = $1
	`, id, displayName, phone)
	return err
}

// Credit adds amount to the worker balance and returns the new balance.
func (r *WorkerRepo) Credit(ctx context.Context, tx pgx.Tx, id int64, amount int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE workers SET balance = balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// Debit atomically deducts amount if the balance covers it. Returns
// pgx.ErrNoRows when it does not; callers map that to insufficient funds.
func (r *WorkerRepo) Debit(ctx context.Context, tx pgx.Tx, id int64, amount int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE workers SET balance = balance - $1, updated_at = now()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// RecordCompletion applies the reward side of an approved task: balance,
// total earned and the completion counter move together.
func (r *WorkerRepo) RecordCompletion(ctx context.Context, tx pgx.Tx, id int64, reward int64) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE workers
		SET balance = balance + $1, total_earned = total_earned + $1, tasks_completed = tasks_completed + 1, updated_at = now()
		WHERE id = $2
		RETURNING balance
	`, reward, id).Scan(&newBalance)
	return newBalance, err
}

// ApplyReferralBonus credits the referrer, bumps successful_referrals and
// sets the one-way ambassador flag in a single statement.
func (r *WorkerRepo) ApplyReferralBonus(ctx context.Context, tx pgx.Tx, id int64, bonus int64, ambassador bool) (newBalance int64, err error) {
	err = tx.QueryRow(ctx, `
		UPDATE workers
		SET balance = balance + $1, successful_referrals = successful_referrals + 1, is_ambassador = is_ambassador OR $2, updated_at = now()
		WHERE id = $3
		RETURNING balance
	`, bonus, ambassador, id).Scan(&newBalance)
	return newBalance, err
}

func (r *WorkerRepo) scanOne(row pgx.Row) (*models.Worker, error) {
	var w models.Worker
	err := row.Scan(&w.ID, &w.DisplayName, &w.Phone, &w.Balance, &w.TotalEarned, &w.TasksCompleted, &w.SuccessfulReferrals, &w.IsAmbassador, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// IsNoRows reports whether err is the pgx "no rows" sentinel.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
