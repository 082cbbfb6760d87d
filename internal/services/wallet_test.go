package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/reviewcrew/backend/internal/models"
)

func newWallet(workers *mockWorkers, withdrawals *mockWithdrawals, entries *mockEntries, notices *noticeLog) *Wallet {
	return NewWallet(fakeDB{}, workers, withdrawals, entries, nil, notices.enqueue, DefaultPolicy(), nil)
}

func worker(id int64, balance int64) *models.Worker {
	return &models.Worker{ID: id, Balance: balance}
}

func TestCredit(t *testing.T) {
	workers := newMockWorkers(worker(1, 100))
	entries := &mockEntries{}
	svc := newWallet(workers, newMockWithdrawals(), entries, &noticeLog{})

	if err := svc.Credit(context.Background(), 1, 50, models.EntryManualCredit); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	if got := workers.balance(1); got != 150 {
		t.Errorf("balance: got %d, want 150", got)
	}
	credits := entries.byType(models.EntryManualCredit)
	if len(credits) != 1 {
		t.Fatalf("manual_credit entries: got %d, want 1", len(credits))
	}
	if credits[0].BalanceAfter != 150 {
		t.Errorf("balance_after: got %d, want 150", credits[0].BalanceAfter)
	}

	if err := svc.Credit(context.Background(), 1, 0, models.EntryManualCredit); err == nil {
		t.Error("zero credit should fail")
	}
	if err := svc.Credit(context.Background(), 99, 10, models.EntryManualCredit); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown worker: got %v, want ErrNotFound", err)
	}
}

func TestDebit_NeverGoesNegative(t *testing.T) {
	workers := newMockWorkers(worker(1, 100))
	entries := &mockEntries{}
	svc := newWallet(workers, newMockWithdrawals(), entries, &noticeLog{})

	if err := svc.Debit(context.Background(), 1, 101, models.EntryManualDebit); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("overdraft: got %v, want ErrInsufficientFunds", err)
	}
	if got := workers.balance(1); got != 100 {
		t.Errorf("balance after failed debit: got %d, want 100", got)
	}
	if entries.count() != 0 {
		t.Errorf("failed debit must leave no entries, got %d", entries.count())
	}

	if err := svc.Debit(context.Background(), 1, 100, models.EntryManualDebit); err != nil {
		t.Fatalf("Debit to zero: %v", err)
	}
	if got := workers.balance(1); got != 0 {
		t.Errorf("balance: got %d, want 0", got)
	}
}

func TestCreateWithdrawal_ReservesFunds(t *testing.T) {
	workers := newMockWorkers(worker(1, 200))
	withdrawals := newMockWithdrawals()
	entries := &mockEntries{}
	svc := newWallet(workers, withdrawals, entries, &noticeLog{})

	id, err := svc.CreateWithdrawal(context.Background(), 1, 150, "card", `{"number":"1234567812345678"}`)
	if err != nil {
		t.Fatalf("CreateWithdrawal: %v", err)
	}

	// The reservation is a real debit.
	if got := workers.balance(1); got != 50 {
		t.Errorf("balance after reservation: got %d, want 50", got)
	}
	if got := withdrawals.status(id); got != models.WithdrawalPending {
		t.Errorf("status: got %q, want pending", got)
	}
	holds := entries.byType(models.EntryWithdrawalHold)
	if len(holds) != 1 {
		t.Fatalf("hold entries: got %d, want 1", len(holds))
	}
	if holds[0].WithdrawalID == nil || *holds[0].WithdrawalID != id {
		t.Error("hold entry should reference the request")
	}
	if holds[0].BalanceAfter != 50 {
		t.Errorf("hold balance_after: got %d, want 50", holds[0].BalanceAfter)
	}
}

func TestCreateWithdrawal_BelowMinimum(t *testing.T) {
	workers := newMockWorkers(worker(1, 200))
	svc := newWallet(workers, newMockWithdrawals(), &mockEntries{}, &noticeLog{})

	_, err := svc.CreateWithdrawal(context.Background(), 1, 49, "card", "{}")
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("got %v, want ErrBelowMinimum", err)
	}
	if got := workers.balance(1); got != 200 {
		t.Errorf("balance must be untouched, got %d", got)
	}
}

func TestCreateWithdrawal_InsufficientFunds(t *testing.T) {
	workers := newMockWorkers(worker(1, 100))
	svc := newWallet(workers, newMockWithdrawals(), &mockEntries{}, &noticeLog{})

	_, err := svc.CreateWithdrawal(context.Background(), 1, 101, "card", "{}")
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("got %v, want ErrInsufficientFunds", err)
	}
}

// A second request is admitted only while amount plus the already pending
// total stays within the current balance.
func TestCreateWithdrawal_PendingReservationCap(t *testing.T) {
	workers := newMockWorkers(worker(1, 200))
	withdrawals := newMockWithdrawals()
	svc := newWallet(workers, withdrawals, &mockEntries{}, &noticeLog{})
	ctx := context.Background()

	if _, err := svc.CreateWithdrawal(ctx, 1, 150, "card", "{}"); err != nil {
		t.Fatalf("first withdrawal: %v", err)
	}
	// Balance is 50 and 150 is still pending: another 50 would promise 200
	// against 50 spendable.
	_, err := svc.CreateWithdrawal(ctx, 1, 50, "card", "{}")
	if !errors.Is(err, ErrPendingReservationExceedsBalance) {
		t.Fatalf("second withdrawal: got %v, want ErrPendingReservationExceedsBalance", err)
	}
	if got := workers.balance(1); got != 50 {
		t.Errorf("balance after rejected request: got %d, want 50", got)
	}
}

func TestResolveWithdrawal_RejectRefunds(t *testing.T) {
	workers := newMockWorkers(worker(1, 200))
	withdrawals := newMockWithdrawals()
	entries := &mockEntries{}
	notices := &noticeLog{}
	svc := newWallet(workers, withdrawals, entries, notices)
	ctx := context.Background()

	id, err := svc.CreateWithdrawal(ctx, 1, 100, "card", "{}")
	if err != nil {
		t.Fatalf("CreateWithdrawal: %v", err)
	}
	if err := svc.ResolveWithdrawal(ctx, id, models.WithdrawalRejected, "bad details"); err != nil {
		t.Fatalf("ResolveWithdrawal: %v", err)
	}

	if got := workers.balance(1); got != 200 {
		t.Errorf("balance after refund: got %d, want 200", got)
	}
	refunds := entries.byType(models.EntryWithdrawalRefund)
	if len(refunds) != 1 || refunds[0].Amount != 100 {
		t.Fatalf("refund entries: got %+v, want one of amount 100", refunds)
	}
	if got := withdrawals.status(id); got != models.WithdrawalRejected {
		t.Errorf("status: got %q, want rejected", got)
	}
	if notices.count() != 1 {
		t.Errorf("notices: got %d, want 1", notices.count())
	}
}

func TestResolveWithdrawal_Terminal(t *testing.T) {
	workers := newMockWorkers(worker(1, 200))
	withdrawals := newMockWithdrawals()
	svc := newWallet(workers, withdrawals, &mockEntries{}, &noticeLog{})
	ctx := context.Background()

	id, err := svc.CreateWithdrawal(ctx, 1, 100, "card", "{}")
	if err != nil {
		t.Fatalf("CreateWithdrawal: %v", err)
	}
	if err := svc.ResolveWithdrawal(ctx, id, models.WithdrawalApproved, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	// Approved is not terminal; the payout confirmation completes it.
	if err := svc.ResolveWithdrawal(ctx, id, models.WithdrawalCompleted, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Completed is terminal.
	if err := svc.ResolveWithdrawal(ctx, id, models.WithdrawalApproved, ""); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("resolve after completion: got %v, want ErrAlreadyProcessed", err)
	}
	// The reservation stays spent, no refund on completion.
	if got := workers.balance(1); got != 100 {
		t.Errorf("balance: got %d, want 100", got)
	}
}

func TestResolveWithdrawal_ApproveTwice(t *testing.T) {
	workers := newMockWorkers(worker(1, 200))
	withdrawals := newMockWithdrawals()
	svc := newWallet(workers, withdrawals, &mockEntries{}, &noticeLog{})
	ctx := context.Background()

	id, err := svc.CreateWithdrawal(ctx, 1, 100, "card", "{}")
	if err != nil {
		t.Fatalf("CreateWithdrawal: %v", err)
	}
	if err := svc.ResolveWithdrawal(ctx, id, models.WithdrawalApproved, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := svc.ResolveWithdrawal(ctx, id, models.WithdrawalApproved, ""); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("second approve: got %v, want ErrAlreadyProcessed", err)
	}
}

func TestResolveWithdrawal_NotFound(t *testing.T) {
	svc := newWallet(newMockWorkers(), newMockWithdrawals(), &mockEntries{}, &noticeLog{})
	err := svc.ResolveWithdrawal(context.Background(), uuid.New(), models.WithdrawalApproved, "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}
