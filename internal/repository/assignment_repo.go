package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reviewcrew/backend/internal/models"
)

// ErrSlotOccupied is returned when the worker's single assignment slot is
// already taken. Surfaces when two concurrent events both find no row and
// race to create one; the PK decides the winner.
var ErrSlotOccupied = errors.New("assignment slot occupied")

type AssignmentRepo struct {
	pool *pgxpool.Pool
}

func NewAssignmentRepo(pool *pgxpool.Pool) *AssignmentRepo {
	return &AssignmentRepo{pool: pool}
}

const assignmentColumns = `worker_id, item_id, state, call_confirmed_at, screenshot_ref, review_comment, replacement_count, last_replacement_reset, created_at, updated_at`

func (r *AssignmentRepo) GetByWorker(ctx context.Context, workerID int64) (*models.TaskAssignment, error) {
	return scanAssignment(r.pool.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM task_assignments WHERE worker_id = $1
	`, workerID))
}

// GetByWorkerForUpdate locks the worker's single assignment slot. All
// lifecycle transitions go through this lock so two concurrent events for the
// same worker serialize.
func (r *AssignmentRepo) GetByWorkerForUpdate(ctx context.Context, tx pgx.Tx, workerID int64) (*models.TaskAssignment, error) {
	return scanAssignment(tx.QueryRow(ctx, `
		SELECT `+assignmentColumns+` FROM task_assignments WHERE worker_id = $1 FOR UPDATE
	`, workerID))
}

func (r *AssignmentRepo) Create(ctx context.Context, tx pgx.Tx, a *models.TaskAssignment) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO task_assignments (worker_id, item_id, state, replacement_count, last_replacement_reset)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, a.WorkerID, a.ItemID, a.State, a.ReplacementCount, a.LastReplacementReset).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrSlotOccupied
		}
		return err
	}
	return nil
}

func (r *AssignmentRepo) Update(ctx context.Context, tx pgx.Tx, a *models.TaskAssignment) error {
	_, err := tx.Exec(ctx, `
		UPDATE task_assignments
		SET item_id = $2, state = $3, call_confirmed_at = $4, screenshot_ref = $5, review_comment = $6, replacement_count = $7, last_replacement_reset = $8, updated_at = now()
		WHERE worker_id = $1
	`, a.WorkerID, a.ItemID, a.State, a.CallConfirmedAt, a.ScreenshotRef, a.ReviewComment, a.ReplacementCount, a.LastReplacementReset)
	return err
}

func (r *AssignmentRepo) Delete(ctx context.Context, tx pgx.Tx, workerID int64) error {
	_, err := tx.Exec(ctx, `DELETE FROM task_assignments WHERE worker_id = $1`, workerID)
	return err
}

func (r *AssignmentRepo) ListByState(ctx context.Context, state string) ([]*models.TaskAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+assignmentColumns+` FROM task_assignments WHERE state = $1 ORDER BY updated_at ASC
	`, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.TaskAssignment
	for rows.Next() {
		a, err := scanAssignmentRows(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func (r *AssignmentRepo) CountByState(ctx context.Context, state string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM task_assignments WHERE state = $1`, state).Scan(&n)
	return n, err
}

func scanAssignment(row pgx.Row) (*models.TaskAssignment, error) {
	var a models.TaskAssignment
	err := row.Scan(&a.WorkerID, &a.ItemID, &a.State, &a.CallConfirmedAt, &a.ScreenshotRef, &a.ReviewComment, &a.ReplacementCount, &a.LastReplacementReset, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssignmentRows(rows pgx.Rows) (*models.TaskAssignment, error) {
	var a models.TaskAssignment
	err := rows.Scan(&a.WorkerID, &a.ItemID, &a.State, &a.CallConfirmedAt, &a.ScreenshotRef, &a.ReviewComment, &a.ReplacementCount, &a.LastReplacementReset, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
