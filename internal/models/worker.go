package models

import "time"

// Worker is a participant who performs review gigs for pay. The ID is the
// opaque chat id assigned by the messaging transport; the record is created
// on first contact.
type Worker struct {
	ID                  int64     `json:"id"`
	DisplayName         string    `json:"display_name"`
	Phone               string    `json:"phone,omitempty"`
	Balance             int64     `json:"balance"`
	TotalEarned         int64     `json:"total_earned"`
	TasksCompleted      int       `json:"tasks_completed"`
	SuccessfulReferrals int       `json:"successful_referrals"`
	IsAmbassador        bool      `json:"is_ambassador"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
