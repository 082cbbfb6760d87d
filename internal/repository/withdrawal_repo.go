package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

type WithdrawalRepo struct {
	pool *pgxpool.Pool
}

func NewWithdrawalRepo(pool *pgxpool.Pool) *WithdrawalRepo {
	return &WithdrawalRepo{pool: pool}
}

const withdrawalColumns = `id, worker_id, amount, method, details, status, admin_comment, created_at, resolved_at`

func (r *WithdrawalRepo) Create(ctx context.Context, tx pgx.Tx, w *models.WithdrawalRequest) error {
	return tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (id, worker_id, amount, method, details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, w.ID, w.WorkerID, w.Amount, w.Method, w.Details, w.Status).Scan(&w.CreatedAt)
}

func (r *WithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return scanWithdrawal(r.pool.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1
	`, id))
}

// GetByIDForUpdate locks the request row so a resolution decision cannot race
// another one for the same request.
func (r *WithdrawalRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.WithdrawalRequest, error) {
	return scanWithdrawal(tx.QueryRow(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE
	`, id))
}

func (r *WithdrawalRepo) SetStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status, comment string) error {
	_, err := tx.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $2, admin_comment = $3, resolved_at = now() WHERE id = $1
	`, id, status, comment)
	return err
}

// PendingSum returns the total amount currently reserved by pending requests
// for the worker, read inside the caller's transaction.
func (r *WithdrawalRepo) PendingSum(ctx context.Context, tx pgx.Tx, workerID int64) (int64, error) {
	var sum int64
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE worker_id = $1 AND status = $2
	`, workerID, models.WithdrawalPending).Scan(&sum)
	return sum, err
}

// PendingSumRead is the untransacted variant for display paths.
func (r *WithdrawalRepo) PendingSumRead(ctx context.Context, workerID int64) (int64, error) {
	var sum int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE worker_id = $1 AND status = $2
	`, workerID, models.WithdrawalPending).Scan(&sum)
	return sum, err
}

func (r *WithdrawalRepo) ListByStatus(ctx context.Context, status string) ([]*models.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE status = $1 ORDER BY created_at ASC
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func (r *WithdrawalRepo) ListByWorker(ctx context.Context, workerID int64) ([]*models.WithdrawalRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE worker_id = $1 ORDER BY created_at DESC
	`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func scanWithdrawal(row pgx.Row) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	err := row.Scan(&w.ID, &w.WorkerID, &w.Amount, &w.Method, &w.Details, &w.Status, &w.AdminComment, &w.CreatedAt, &w.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func collectWithdrawals(rows pgx.Rows) ([]*models.WithdrawalRequest, error) {
	var list []*models.WithdrawalRequest
	for rows.Next() {
		var w models.WithdrawalRequest
		if err := rows.Scan(&w.ID, &w.WorkerID, &w.Amount, &w.Method, &w.Details, &w.Status, &w.AdminComment, &w.CreatedAt, &w.ResolvedAt); err != nil {
			return nil, err
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}
