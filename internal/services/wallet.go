package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/reviewcrew/backend/internal/models"
	"github.com/reviewcrew/backend/internal/notify"
)

// WalletWorkerRepo is the worker-row interface for balance mutation.
type WalletWorkerRepo interface {
	GetByID(ctx context.Context, id int64) (*models.Worker, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*models.Worker, error)
	Credit(ctx context.Context, tx pgx.Tx, id int64, amount int64) (newBalance int64, err error)
	Debit(ctx context.Context, tx pgx.Tx, id int64, amount int64) (newBalance int64, err error)
}

// WalletWithdrawalRepo is the withdrawal-request store.
type WalletWithdrawalRepo interface {
	Create(ctx context.Context, tx pgx.Tx, w *models.WithdrawalRequest) error
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.WithdrawalRequest, error)
	SetStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status, comment string) error
	PendingSum(ctx context.Context, tx pgx.Tx, workerID int64) (int64, error)
	PendingSumRead(ctx context.Context, workerID int64) (int64, error)
}

// DetailsValidator checks payment destination details against the schema for
// the chosen method.
type DetailsValidator interface {
	ValidateDetails(method, details string) error
}

// Wallet owns every monetary field. Balance, reservation and withdrawal
// status only change through its methods, each a single transaction that
// locks the rows it reads.
type Wallet struct {
	DB          TxBeginner
	Workers     WalletWorkerRepo
	Withdrawals WalletWithdrawalRepo
	Entries     EntryWriter
	Validator   DetailsValidator
	Enqueue     notify.EnqueueTxFunc
	Policy      Policy
	Logger      *slog.Logger
}

func NewWallet(
	db TxBeginner,
	workers WalletWorkerRepo,
	withdrawals WalletWithdrawalRepo,
	entries EntryWriter,
	validator DetailsValidator,
	enqueue notify.EnqueueTxFunc,
	policy Policy,
	logger *slog.Logger,
) *Wallet {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wallet{
		DB:          db,
		Workers:     workers,
		Withdrawals: withdrawals,
		Entries:     entries,
		Validator:   validator,
		Enqueue:     enqueue,
		Policy:      policy,
		Logger:      logger,
	}
}

// Credit adds amount to the worker balance with an audit entry.
func (s *Wallet) Credit(ctx context.Context, workerID int64, amount int64, entryType string) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.Workers.GetByIDForUpdate(ctx, tx, workerID); err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("lock worker: %w", err)
	}
	newBalance, err := s.Workers.Credit(ctx, tx, workerID, amount)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	if err := s.Entries.CreateTx(ctx, tx, &models.WalletEntry{
		ID:           uuid.New(),
		WorkerID:     workerID,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: newBalance,
	}); err != nil {
		return fmt.Errorf("credit entry: %w", err)
	}
	return tx.Commit(ctx)
}

// Debit removes amount from the worker balance, failing with
// ErrInsufficientFunds if the balance would go below zero.
func (s *Wallet) Debit(ctx context.Context, workerID int64, amount int64, entryType string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.Workers.GetByIDForUpdate(ctx, tx, workerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("lock worker: %w", err)
	}
	if w.Balance < amount {
		return ErrInsufficientFunds
	}
	newBalance, err := s.Workers.Debit(ctx, tx, workerID, amount)
	if err != nil {
		return fmt.Errorf("debit: %w", err)
	}
	if err := s.Entries.CreateTx(ctx, tx, &models.WalletEntry{
		ID:           uuid.New(),
		WorkerID:     workerID,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: newBalance,
	}); err != nil {
		return fmt.Errorf("debit entry: %w", err)
	}
	return tx.Commit(ctx)
}

// CreateWithdrawal reserves amount from the balance and inserts a pending
// request in one transaction. The reservation is a real debit: it is refunded
// only when the request is rejected.
//
// Checks run in this order: minimum, details schema, balance, pending sum
// against the current (already-decremented) balance. The last check means a
// second request is admitted only while the pending total stays within what
// the worker can still spend.
func (s *Wallet) CreateWithdrawal(ctx context.Context, workerID int64, amount int64, method, details string) (uuid.UUID, error) {
	if amount < s.Policy.MinWithdrawal {
		return uuid.Nil, ErrBelowMinimum
	}
	if s.Validator != nil {
		if err := s.Validator.ValidateDetails(method, details); err != nil {
			return uuid.Nil, err
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	w, err := s.Workers.GetByIDForUpdate(ctx, tx, workerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("lock worker: %w", err)
	}
	pending, err := s.Withdrawals.PendingSum(ctx, tx, workerID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("pending sum: %w", err)
	}
	if amount > w.Balance {
		return uuid.Nil, ErrInsufficientFunds
	}
	if amount+pending > w.Balance {
		return uuid.Nil, ErrPendingReservationExceedsBalance
	}

	newBalance, err := s.Workers.Debit(ctx, tx, workerID, amount)
	if err != nil {
		return uuid.Nil, fmt.Errorf("reserve: %w", err)
	}
	req := &models.WithdrawalRequest{
		ID:       uuid.New(),
		WorkerID: workerID,
		Amount:   amount,
		Method:   method,
		Details:  details,
		Status:   models.WithdrawalPending,
	}
	if err := s.Withdrawals.Create(ctx, tx, req); err != nil {
		return uuid.Nil, fmt.Errorf("create request: %w", err)
	}
	if err := s.Entries.CreateTx(ctx, tx, &models.WalletEntry{
		ID:           uuid.New(),
		WorkerID:     workerID,
		WithdrawalID: &req.ID,
		EntryType:    models.EntryWithdrawalHold,
		Amount:       amount,
		BalanceAfter: newBalance,
	}); err != nil {
		return uuid.Nil, fmt.Errorf("hold entry: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return req.ID, nil
}

// ResolveWithdrawal applies an admin decision. Approval and completion are
// status-only (the funds are already reserved); rejection refunds the
// reservation. Terminal requests fail with ErrAlreadyProcessed.
func (s *Wallet) ResolveWithdrawal(ctx context.Context, requestID uuid.UUID, decision, comment string) error {
	switch decision {
	case models.WithdrawalApproved, models.WithdrawalRejected, models.WithdrawalCompleted:
	default:
		return fmt.Errorf("unknown decision %q", decision)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	req, err := s.Withdrawals.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("lock request: %w", err)
	}
	if req.Status == models.WithdrawalRejected || req.Status == models.WithdrawalCompleted {
		return ErrAlreadyProcessed
	}

	switch decision {
	case models.WithdrawalApproved:
		if req.Status != models.WithdrawalPending {
			return ErrAlreadyProcessed
		}
	case models.WithdrawalRejected:
		if _, err := s.Workers.GetByIDForUpdate(ctx, tx, req.WorkerID); err != nil {
			return fmt.Errorf("lock worker: %w", err)
		}
		newBalance, err := s.Workers.Credit(ctx, tx, req.WorkerID, req.Amount)
		if err != nil {
			return fmt.Errorf("refund: %w", err)
		}
		if err := s.Entries.CreateTx(ctx, tx, &models.WalletEntry{
			ID:           uuid.New(),
			WorkerID:     req.WorkerID,
			WithdrawalID: &req.ID,
			EntryType:    models.EntryWithdrawalRefund,
			Amount:       req.Amount,
			BalanceAfter: newBalance,
		}); err != nil {
			return fmt.Errorf("refund entry: %w", err)
		}
	}

	if err := s.Withdrawals.SetStatus(ctx, tx, requestID, decision, comment); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if s.Enqueue != nil {
		args := notify.SendMessageArgs{ChatID: req.WorkerID, Text: withdrawalText(decision, req.Amount, comment)}
		if err := s.Enqueue(ctx, tx, args); err != nil {
			return fmt.Errorf("enqueue notice: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// GetBalance returns the worker's spendable balance.
func (s *Wallet) GetBalance(ctx context.Context, workerID int64) (int64, error) {
	w, err := s.Workers.GetByID(ctx, workerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return w.Balance, nil
}

// GetPendingReservations returns the total currently held by pending requests.
func (s *Wallet) GetPendingReservations(ctx context.Context, workerID int64) (int64, error) {
	return s.Withdrawals.PendingSumRead(ctx, workerID)
}

func withdrawalText(decision string, amount int64, comment string) string {
	switch decision {
	case models.WithdrawalApproved:
		return fmt.Sprintf("Your withdrawal of %d was approved and will be paid out shortly.", amount)
	case models.WithdrawalCompleted:
		return fmt.Sprintf("Your withdrawal of %d has been paid out.", amount)
	case models.WithdrawalRejected:
		if comment == "" {
			return fmt.Sprintf("Your withdrawal of %d was rejected. The amount has been returned to your balance.", amount)
		}
		return fmt.Sprintf("Your withdrawal of %d was rejected (%s). The amount has been returned to your balance.", amount, comment)
	}
	return ""
}
