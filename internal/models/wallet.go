package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal request statuses. Rejected and completed are terminal.
const (
	WithdrawalPending   = "pending"
	WithdrawalApproved  = "approved"
	WithdrawalRejected  = "rejected"
	WithdrawalCompleted = "completed"
)

// Wallet entry types. Every balance mutation leaves exactly one entry.
const (
	EntryTaskReward       = "task_reward"
	EntryReferralBonus    = "referral_bonus"
	EntryWithdrawalHold   = "withdrawal_hold"
	EntryWithdrawalRefund = "withdrawal_refund"
	EntryManualCredit     = "manual_credit"
	EntryManualDebit      = "manual_debit"
)

// WithdrawalRequest reserves funds at creation time: the amount is debited
// from the worker balance in the same transaction that inserts the pending
// row, and refunded only on rejection.
type WithdrawalRequest struct {
	ID           uuid.UUID  `json:"id"`
	WorkerID     int64      `json:"worker_id"`
	Amount       int64      `json:"amount"`
	Method       string     `json:"method"`
	Details      string     `json:"details"`
	Status       string     `json:"status"`
	AdminComment string     `json:"admin_comment,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// WalletEntry is the audit trail row written alongside each balance mutation.
type WalletEntry struct {
	ID           uuid.UUID  `json:"id"`
	WorkerID     int64      `json:"worker_id"`
	WithdrawalID *uuid.UUID `json:"withdrawal_id,omitempty"`
	EntryType    string     `json:"entry_type"`
	Amount       int64      `json:"amount"`
	BalanceAfter int64      `json:"balance_after"`
	CreatedAt    time.Time  `json:"created_at"`
}
