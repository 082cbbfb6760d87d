package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/notify"
	"github.com/reviewcrew/backend/internal/repository"
)

// ReferralEdgeRepo is the referral-edge store.
type ReferralEdgeRepo interface {
	CreateEdge(ctx context.Context, referrerID, referredID int64) error
	GetByReferredForUpdate(ctx context.Context, tx pgx.Tx, referredID int64) (*models.ReferralEdge, error)
	MarkBonusPaid(ctx context.Context, tx pgx.Tx, referredID int64) error
}

// ReferralEdgeReader is the untransacted lookup used for cycle detection.
type ReferralEdgeReader interface {
	GetByReferred(ctx context.Context, referredID int64) (*models.ReferralEdge, error)
}

// ReferralWorkerRepo is the worker interface for paying the referrer.
type ReferralWorkerRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Worker, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Worker, error)
	ApplyReferralBonus(ctx context.Context, tx pgx.Tx, id int64, bonus int64, ambassador bool) (newBalance int64, err error)
}

// Referral pays the upstream bonus exactly once per referred worker, inside
// the same transaction as the task completion that triggers it.
type Referral struct {
	Edges   ReferralEdgeRepo
	Reader  ReferralEdgeReader
	Workers ReferralWorkerRepo
	Entries EntryWriter
	Enqueue notify.EnqueueTxFunc
	Policy  Policy
	Logger  *slog.Logger
}

func NewReferral(
	edges ReferralEdgeRepo,
	reader ReferralEdgeReader,
	workers ReferralWorkerRepo,
	entries EntryWriter,
	enqueue notify.EnqueueTxFunc,
	policy Policy,
	logger *slog.Logger,
) *Referral {
	if logger == nil {
		logger = slog.Default()
	}
	return &Referral{
		Edges:   edges,
		Reader:  reader,
		Workers: workers,
		Entries: entries,
		Enqueue: enqueue,
		Policy:  policy,
		Logger:  logger,
	}
}

// Link records that referrerID invited referredID. A worker has at most one
// referrer; self-referral and any referral cycle are rejected.
func (s *Referral) Link(ctx context.Context, referrerID, referredID int64) error {
	if referrerID == referredID {
		return ErrSelfReferral
	}
	if _, err := s.Workers.GetByID(ctx, referrerID); err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("load referrer: %w", err)
	}
	if err := s.checkCycle(ctx, referrerID, referredID); err != nil {
		return err
	}
	if err := s.Edges.CreateEdge(ctx, referrerID, referredID); err != nil {
		if isEdgeExists(err) {
			return ErrAlreadyReferred
		}
		return fmt.Errorf("create edge: %w", err)
	}
	return nil
}

// checkCycle walks the referrer chain upward from referrerID; finding
// referredID there would close a cycle.
func (s *Referral) checkCycle(ctx context.Context, referrerID, referredID int64) error {
	cur := referrerID
	for {
		edge, err := s.Reader.GetByReferred(ctx, cur)
		if err == pgx.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("walk referral chain: %w", err)
		}
		if edge.ReferrerID == referredID {
			return ErrCyclicReferral
		}
		cur = edge.ReferrerID
	}
}

// PayBonus runs inside the completion transaction. No edge or an already-paid
// edge is a no-op; bonus_paid is the idempotency guard. The base bonus is
// fixed; once the referrer is (or with this payment becomes) an ambassador, a
// percentage of the task reward is added on top.
func (s *Referral) PayBonus(ctx context.Context, tx pgx.Tx, referredID int64, taskReward int64) error {
	edge, err := s.Edges.GetByReferredForUpdate(ctx, tx, referredID)
	if err == pgx.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load edge: %w", err)
	}
	if edge.BonusPaid {
		return nil
	}

	referrer, err := s.Workers.GetByIDForUpdate(ctx, tx, edge.ReferrerID)
	if err != nil {
		return fmt.Errorf("lock referrer: %w", err)
	}

	newCount := referrer.SuccessfulReferrals + 1
	crossed := !referrer.IsAmbassador && newCount >= s.Policy.AmbassadorThreshold
	bonus := s.Policy.ReferralBonus
	if referrer.IsAmbassador || crossed {
		bonus += taskReward * s.Policy.AmbassadorPercent / 100
	}

	newBalance, err := s.Workers.ApplyReferralBonus(ctx, tx, edge.ReferrerID, bonus, crossed)
	if err != nil {
		return fmt.Errorf("pay referrer: %w", err)
	}
	if err := s.Entries.CreateTx(ctx, tx, &models.WalletEntry{
		ID:           uuid.New(),
		WorkerID:     edge.ReferrerID,
		EntryType:    models.EntryReferralBonus,
		Amount:       bonus,
		BalanceAfter: newBalance,
	}); err != nil {
		return fmt.Errorf("bonus entry: %w", err)
	}
	if err := s.Edges.MarkBonusPaid(ctx, tx, referredID); err != nil {
		return fmt.Errorf("mark bonus paid: %w", err)
	}
	if s.Enqueue != nil {
		text := fmt.Sprintf("Your referral completed their first task. Bonus credited: %d.", bonus)
		if crossed {
			text += " You are now an ambassador."
		}
		if err := s.Enqueue(ctx, tx, notify.SendMessageArgs{ChatID: edge.ReferrerID, Text: text}); err != nil {
			return fmt.Errorf("enqueue notice: %w", err)
		}
	}
	return nil
}

func isEdgeExists(err error) bool {
	return errors.Is(err, repository.ErrEdgeExists)
}
