package services

import "errors"

// Typed results of core operations. Handlers and the bot gateway map each of
// these to a distinct user-facing message; none are swallowed.
var (
	ErrInvalidState                     = errors.New("invalid state transition")
	ErrInsufficientFunds                = errors.New("insufficient funds")
	ErrBelowMinimum                     = errors.New("amount below minimum withdrawal")
	ErrPendingReservationExceedsBalance = errors.New("pending reservations exceed balance")
	ErrReplacementLimitExceeded         = errors.New("replacement limit exceeded")
	ErrAlreadyProcessed                 = errors.New("request already processed")
	ErrNotFound                         = errors.New("not found")
	ErrNoTaskAvailable                  = errors.New("no task available")
	ErrTaskAlreadyActive                = errors.New("task already active")
	ErrNotReplaceable                   = errors.New("task not replaceable")
	ErrAlreadyReferred                  = errors.New("worker already has a referrer")
	ErrSelfReferral                     = errors.New("self referral forbidden")
	ErrCyclicReferral                   = errors.New("cyclic referral forbidden")
)
