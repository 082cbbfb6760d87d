package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

// ErrEdgeExists is returned when the referred worker already has a referrer.
var ErrEdgeExists = errors.New("referral edge already exists")

type ReferralRepo struct {
	pool *pgxpool.Pool
}

func NewReferralRepo(pool *pgxpool.Pool) *ReferralRepo {
	return &ReferralRepo{pool: pool}
}

func (r *ReferralRepo) CreateEdge(ctx context.Context, referrerID, referredID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO referral_edges (referrer_id, referred_id) VALUES ($1, $2)
	`, referrerID, referredID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEdgeExists
		}
		return err
	}
	return nil
}

func (r *ReferralRepo) GetByReferred(ctx context.Context, referredID int64) (*models.ReferralEdge, error) {
	var e models.ReferralEdge
	err := r.pool.QueryRow(ctx, `
		SELECT referrer_id, referred_id, bonus_paid, created_at
		FROM referral_edges WHERE referred_id = $1
	`, referredID).Scan(&e.ReferrerID, &e.ReferredID, &e.BonusPaid, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByReferredForUpdate locks the edge row so the bonus decision and the
// bonus_paid write cannot race a duplicate trigger.
func (r *ReferralRepo) GetByReferredForUpdate(ctx context.Context, tx pgx.Tx, referredID int64) (*models.ReferralEdge, error) {
	var e models.ReferralEdge
	err := tx.QueryRow(ctx, `
		SELECT referrer_id, referred_id, bonus_paid, created_at
		FROM referral_edges WHERE referred_id = $1 FOR UPDATE
	`, referredID).Scan(&e.ReferrerID, &e.ReferredID, &e.BonusPaid, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *ReferralRepo) MarkBonusPaid(ctx context.Context, tx pgx.Tx, referredID int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE referral_edges SET bonus_paid = TRUE WHERE referred_id = $1
	`, referredID)
	return err
}

func (r *ReferralRepo) CountByReferrer(ctx context.Context, referrerID int64) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM referral_edges WHERE referrer_id = $1
	`, referrerID).Scan(&n)
	return n, err
}
