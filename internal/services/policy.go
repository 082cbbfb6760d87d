package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Policy carries the payout and replacement constants. Values come from
// config; DefaultPolicy matches production.
type Policy struct {
	TaskReward          int64
	MinWithdrawal       int64
	ReferralBonus       int64
	AmbassadorThreshold int
	AmbassadorPercent   int64
	ReplacementLimit    int
	ReplacementWindow   time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		TaskReward:          200,
		MinWithdrawal:       50,
		ReferralBonus:       50,
		AmbassadorThreshold: 5,
		AmbassadorPercent:   10,
		ReplacementLimit:    2,
		ReplacementWindow:   72 * time.Hour,
	}
}

// TxBeginner abstracts transaction creation so tests don't need a pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
