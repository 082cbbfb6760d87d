package models

import (
	"time"

	"github.com/google/uuid"
)

// Assignment lifecycle states. A worker holds at most one assignment at a
// time; completed and rejected are terminal states from which the worker may
// only request a fresh task (which deletes the record).
const (
	AssignmentAllocated           = "allocated"
	AssignmentAwaitingMorning     = "awaiting_morning_window"
	AssignmentAwaitingEvening     = "awaiting_evening_window"
	AssignmentAwaitingScreenshot  = "awaiting_screenshot"
	AssignmentUnderReview         = "under_review"
	AssignmentCompleted           = "completed"
	AssignmentRejected            = "rejected"
)

type TaskCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskItem is one assignable unit of work: a reference photo naming the
// business the worker has to call and review. Items are shared across the
// whole pool and may be handed to many workers, at most once each.
type TaskItem struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	PhotoRef   string    `json:"photo_ref"`
	CreatedAt  time.Time `json:"created_at"`
}

// CompletedTask marks an item as seen by a worker. Rows are append-only and
// written both on approval and on replacement, so a replaced item is never
// reissued to the same worker.
type CompletedTask struct {
	WorkerID  int64     `json:"worker_id"`
	ItemID    uuid.UUID `json:"item_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskAssignment is the live binding of one TaskItem to one worker.
type TaskAssignment struct {
	WorkerID             int64      `json:"worker_id"`
	ItemID               uuid.UUID  `json:"item_id"`
	State                string     `json:"state"`
	CallConfirmedAt      *time.Time `json:"call_confirmed_at,omitempty"`
	ScreenshotRef        string     `json:"screenshot_ref,omitempty"`
	ReviewComment        string     `json:"review_comment,omitempty"`
	ReplacementCount     int        `json:"replacement_count"`
	LastReplacementReset time.Time  `json:"last_replacement_reset"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}
