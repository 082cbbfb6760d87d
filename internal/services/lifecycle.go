package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/notify"
	"github.com/reviewcrew/backend/internal/repository"
)

// assignmentTransitions is the reviewed transition table: each source state
// appears exactly once and maps to the full set of permitted destinations.
// Requests outside the table fail with ErrInvalidState.
var assignmentTransitions = map[string]map[string]bool{
	models.AssignmentAllocated:          {models.AssignmentAwaitingMorning: true},
	models.AssignmentAwaitingMorning:    {models.AssignmentAwaitingEvening: true},
	models.AssignmentAwaitingEvening:    {models.AssignmentAwaitingScreenshot: true},
	models.AssignmentAwaitingScreenshot: {models.AssignmentUnderReview: true, models.AssignmentRejected: true},
	models.AssignmentUnderReview:        {models.AssignmentCompleted: true, models.AssignmentRejected: true},
	models.AssignmentRejected:           {models.AssignmentAwaitingScreenshot: true},
	models.AssignmentCompleted:          {},
}

// CanTransition reports whether the lifecycle permits from -> to.
func CanTransition(from, to string) bool {
	return assignmentTransitions[from][to]
}

// LifecycleAssignmentRepo is the single-slot assignment store.
type LifecycleAssignmentRepo interface {
	GetByWorker(ctx context.Context, workerID int64) (*models.TaskAssignment, error)
	GetByWorkerForUpdate(ctx context.Context, tx pgx.Tx, workerID int64) (*models.TaskAssignment, error)
	Create(ctx context.Context, tx pgx.Tx, a *models.TaskAssignment) error
	Update(ctx context.Context, tx pgx.Tx, a *models.TaskAssignment) error
	Delete(ctx context.Context, tx pgx.Tx, workerID int64) error
}

// LifecyclePoolRepo records seen items and resolves items during replacement.
type LifecyclePoolRepo interface {
	MarkSeen(ctx context.Context, tx pgx.Tx, workerID int64, itemID uuid.UUID) error
	GetItemTx(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.TaskItem, error)
}

// LifecycleWorkerRepo applies the monetary side of an approval.
type LifecycleWorkerRepo interface {
	RecordCompletion(ctx context.Context, tx pgx.Tx, id int64, reward int64) (newBalance int64, err error)
}

// EntryWriter appends wallet audit entries.
type EntryWriter interface {
	CreateTx(ctx context.Context, tx pgx.Tx, e *models.WalletEntry) error
}

// BonusCascade pays the upstream referral bonus inside the caller's transaction.
type BonusCascade interface {
	PayBonus(ctx context.Context, tx pgx.Tx, referredID int64, taskReward int64) error
}

// ItemAllocator selects an unseen item for a worker.
type ItemAllocator interface {
	Allocate(ctx context.Context, tx pgx.Tx, workerID int64, excludeCategoryID *uuid.UUID) (*models.TaskItem, error)
}

// Lifecycle governs the per-worker task pipeline from assignment to payout or
// rejection. Every operation is one transaction; the worker's assignment row
// is locked first so concurrent events for the same worker serialize.
type Lifecycle struct {
	DB          TxBeginner
	Assignments LifecycleAssignmentRepo
	Pool        LifecyclePoolRepo
	Workers     LifecycleWorkerRepo
	Entries     EntryWriter
	Allocator   ItemAllocator
	Referrals   BonusCascade
	Enqueue     notify.EnqueueTxFunc
	Policy      Policy
	Now         func() time.Time
	Logger      *slog.Logger
}

func NewLifecycle(
	db TxBeginner,
	assignments LifecycleAssignmentRepo,
	pool LifecyclePoolRepo,
	workers LifecycleWorkerRepo,
	entries EntryWriter,
	allocator ItemAllocator,
	referrals BonusCascade,
	enqueue notify.EnqueueTxFunc,
	policy Policy,
	logger *slog.Logger,
) *Lifecycle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lifecycle{
		DB:          db,
		Assignments: assignments,
		Pool:        pool,
		Workers:     workers,
		Entries:     entries,
		Allocator:   allocator,
		Referrals:   referrals,
		Enqueue:     enqueue,
		Policy:      policy,
		Now:         time.Now,
		Logger:      logger,
	}
}

// RequestTask hands the worker a fresh assignment. A live (non-terminal)
// assignment blocks the request; a terminal one is deleted and replaced.
func (s *Lifecycle) RequestTask(ctx context.Context, workerID int64) (*models.TaskItem, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := s.Assignments.GetByWorkerForUpdate(ctx, tx, workerID)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if a != nil {
		if a.State != models.AssignmentCompleted && a.State != models.AssignmentRejected {
			return nil, ErrTaskAlreadyActive
		}
		if err := s.Assignments.Delete(ctx, tx, workerID); err != nil {
			return nil, fmt.Errorf("delete terminal assignment: %w", err)
		}
	}

	item, err := s.allocateNew(ctx, tx, workerID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return item, nil
}

// ReplaceTask swaps the current item for one from a different category. Only
// permitted while the task is still in allocated, at most ReplacementLimit
// times per rolling ReplacementWindow. The abandoned item is marked seen so it
// is never reissued to this worker.
func (s *Lifecycle) ReplaceTask(ctx context.Context, workerID int64) (*models.TaskItem, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := s.Assignments.GetByWorkerForUpdate(ctx, tx, workerID)
	if err == pgx.ErrNoRows {
		return nil, ErrNotReplaceable
	}
	if err != nil {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	if a.State != models.AssignmentAllocated {
		return nil, ErrNotReplaceable
	}

	now := s.Now()
	if now.Sub(a.LastReplacementReset) >= s.Policy.ReplacementWindow {
		a.ReplacementCount = 0
		a.LastReplacementReset = now
	}
	if a.ReplacementCount >= s.Policy.ReplacementLimit {
		return nil, ErrReplacementLimitExceeded
	}

	abandoned, err := s.Pool.GetItemTx(ctx, tx, a.ItemID)
	if err != nil {
		return nil, fmt.Errorf("load abandoned item: %w", err)
	}
	if err := s.Pool.MarkSeen(ctx, tx, workerID, a.ItemID); err != nil {
		return nil, fmt.Errorf("mark abandoned item seen: %w", err)
	}

	item, err := s.Allocator.Allocate(ctx, tx, workerID, &abandoned.CategoryID)
	if err != nil {
		return nil, err
	}

	a.ItemID = item.ID
	a.ReplacementCount++
	if err := s.Assignments.Update(ctx, tx, a); err != nil {
		return nil, fmt.Errorf("update assignment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return item, nil
}

// ConfirmCall records that the worker called the business and moves the task
// into the morning window.
func (s *Lifecycle) ConfirmCall(ctx context.Context, workerID int64) error {
	return s.advance(ctx, workerID, models.AssignmentAwaitingMorning, func(a *models.TaskAssignment) {
		now := s.Now()
		a.CallConfirmedAt = &now
	})
}

// ConfirmMorning moves the task from the morning to the evening window.
func (s *Lifecycle) ConfirmMorning(ctx context.Context, workerID int64) error {
	return s.advance(ctx, workerID, models.AssignmentAwaitingEvening, nil)
}

// ConfirmEvening ends the evening window; the worker now owes a screenshot.
func (s *Lifecycle) ConfirmEvening(ctx context.Context, workerID int64) error {
	return s.advance(ctx, workerID, models.AssignmentAwaitingScreenshot, nil)
}

// SubmitScreenshot attaches the screenshot and queues the task for review.
// After a rejection the worker may resubmit without burning the assignment.
func (s *Lifecycle) SubmitScreenshot(ctx context.Context, workerID int64, screenshotRef string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := s.getOrCreateForUpdate(ctx, tx, workerID)
	if err != nil {
		return err
	}
	if a.State == models.AssignmentRejected {
		if err := s.transition(a, models.AssignmentAwaitingScreenshot); err != nil {
			return err
		}
	}
	if err := s.transition(a, models.AssignmentUnderReview); err != nil {
		return err
	}
	a.ScreenshotRef = screenshotRef
	a.ReviewComment = ""
	if err := s.Assignments.Update(ctx, tx, a); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return tx.Commit(ctx)
}

// ReviewScreenshot applies the admin decision. Approval atomically credits
// the reward, bumps the completion counters, marks the item seen and runs the
// referral cascade; all effects commit together or not at all. Rejection
// records the comment and leaves the balance untouched.
func (s *Lifecycle) ReviewScreenshot(ctx context.Context, workerID int64, approve bool, comment string) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := s.Assignments.GetByWorkerForUpdate(ctx, tx, workerID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load assignment: %w", err)
	}

	if approve {
		if err := s.transition(a, models.AssignmentCompleted); err != nil {
			return err
		}
		if err := s.Assignments.Update(ctx, tx, a); err != nil {
			return fmt.Errorf("update assignment: %w", err)
		}
		reward := s.Policy.TaskReward
		newBalance, err := s.Workers.RecordCompletion(ctx, tx, workerID, reward)
		if err != nil {
			return fmt.Errorf("credit reward: %w", err)
		}
		if err := s.Entries.CreateTx(ctx, tx, &models.WalletEntry{
			ID:           uuid.New(),
			WorkerID:     workerID,
			EntryType:    models.EntryTaskReward,
			Amount:       reward,
			BalanceAfter: newBalance,
		}); err != nil {
			return fmt.Errorf("reward entry: %w", err)
		}
		if err := s.Pool.MarkSeen(ctx, tx, workerID, a.ItemID); err != nil {
			return fmt.Errorf("mark item seen: %w", err)
		}
		if err := s.Referrals.PayBonus(ctx, tx, workerID, reward); err != nil {
			return fmt.Errorf("referral cascade: %w", err)
		}
		if err := s.enqueue(ctx, tx, workerID, approvedText(reward)); err != nil {
			return err
		}
	} else {
		if err := s.transition(a, models.AssignmentRejected); err != nil {
			return err
		}
		a.ReviewComment = comment
		if err := s.Assignments.Update(ctx, tx, a); err != nil {
			return fmt.Errorf("update assignment: %w", err)
		}
		if err := s.enqueue(ctx, tx, workerID, rejectedText(comment)); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetAssignment exposes the current assignment for display paths.
func (s *Lifecycle) GetAssignment(ctx context.Context, workerID int64) (*models.TaskAssignment, error) {
	a, err := s.Assignments.GetByWorker(ctx, workerID)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	return a, err
}

// advance runs one table transition inside its own transaction. A missing
// assignment is created in allocated first, then the requested transition is
// attempted from there.
func (s *Lifecycle) advance(ctx context.Context, workerID int64, target string, mutate func(*models.TaskAssignment)) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	a, err := s.getOrCreateForUpdate(ctx, tx, workerID)
	if err != nil {
		return err
	}
	if err := s.transition(a, target); err != nil {
		return err
	}
	if mutate != nil {
		mutate(a)
	}
	if err := s.Assignments.Update(ctx, tx, a); err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Lifecycle) transition(a *models.TaskAssignment, to string) error {
	if !CanTransition(a.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, a.State, to)
	}
	a.State = to
	return nil
}

func (s *Lifecycle) getOrCreateForUpdate(ctx context.Context, tx pgx.Tx, workerID int64) (*models.TaskAssignment, error) {
	a, err := s.Assignments.GetByWorkerForUpdate(ctx, tx, workerID)
	if err == nil {
		return a, nil
	}
	if err != pgx.ErrNoRows {
		return nil, fmt.Errorf("load assignment: %w", err)
	}
	item, err := s.Allocator.Allocate(ctx, tx, workerID, nil)
	if err != nil {
		return nil, err
	}
	a = &models.TaskAssignment{
		WorkerID:             workerID,
		ItemID:               item.ID,
		State:                models.AssignmentAllocated,
		LastReplacementReset: s.Now(),
	}
	if err := s.Assignments.Create(ctx, tx, a); err != nil {
		// A concurrent event for the same worker won the create race.
		if errors.Is(err, repository.ErrSlotOccupied) {
			return nil, ErrTaskAlreadyActive
		}
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return a, nil
}

func (s *Lifecycle) allocateNew(ctx context.Context, tx pgx.Tx, workerID int64) (*models.TaskItem, error) {
	item, err := s.Allocator.Allocate(ctx, tx, workerID, nil)
	if err != nil {
		return nil, err
	}
	a := &models.TaskAssignment{
		WorkerID:             workerID,
		ItemID:               item.ID,
		State:                models.AssignmentAllocated,
		LastReplacementReset: s.Now(),
	}
	if err := s.Assignments.Create(ctx, tx, a); err != nil {
		if errors.Is(err, repository.ErrSlotOccupied) {
			return nil, ErrTaskAlreadyActive
		}
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return item, nil
}

func (s *Lifecycle) enqueue(ctx context.Context, tx pgx.Tx, chatID int64, text string) error {
	if s.Enqueue == nil {
		return nil
	}
	if err := s.Enqueue(ctx, tx, notify.SendMessageArgs{ChatID: chatID, Text: text}); err != nil {
		return fmt.Errorf("enqueue notice: %w", err)
	}
	return nil
}

func approvedText(reward int64) string {
	return fmt.Sprintf("Your review was approved. %d has been credited to your balance.", reward)
}

func rejectedText(comment string) string {
	if comment == "" {
		return "Your screenshot was rejected. Please submit a new one."
	}
	return "Your screenshot was rejected: " + comment
}
