package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

type EntryRepo struct {
	pool *pgxpool.Pool
}

func NewEntryRepo(pool *pgxpool.Pool) *EntryRepo {
	return &EntryRepo{pool: pool}
}

// CreateTx inserts a wallet entry inside the given transaction.
func (r *EntryRepo) CreateTx(ctx context.Context, tx pgx.Tx, e *models.WalletEntry) error {
	return tx.QueryRow(ctx, `
		INSERT INTO wallet_entries (id, worker_id, withdrawal_id, entry_type, amount, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, e.ID, e.WorkerID, e.WithdrawalID, e.EntryType, e.Amount, e.BalanceAfter).Scan(&e.CreatedAt)
}

func (r *EntryRepo) ListByWorker(ctx context.Context, workerID int64) ([]*models.WalletEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, worker_id, withdrawal_id, entry_type, amount, balance_after, created_at
		FROM wallet_entries WHERE worker_id = $1 ORDER BY created_at DESC
	`, workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.WalletEntry
	for rows.Next() {
		var e models.WalletEntry
		if err := rows.Scan(&e.ID, &e.WorkerID, &e.WithdrawalID, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
