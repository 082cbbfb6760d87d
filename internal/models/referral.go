package models

import "time"

// ReferralEdge links a referred worker to the worker who invited them. A
// worker has at most one referrer; BonusPaid flips exactly once, on the
// first-ever approval of one of the referred worker's tasks.
type ReferralEdge struct {
	ReferrerID int64     `json:"referrer_id"`
	ReferredID int64     `json:"referred_id"`
	BonusPaid  bool      `json:"bonus_paid"`
	CreatedAt  time.Time `json:"created_at"`
}
