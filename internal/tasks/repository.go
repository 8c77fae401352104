package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Alpho052/career-guidance-platform/internal/db"
)

const defaultMaxAttempts = 5

// Repository stores tasks in the tasks and dead_letter_tasks tables.
type Repository struct {
	db *db.DB
}

func NewRepository(d *db.DB) *Repository { return &Repository{db: d} }

func millis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// Enqueue inserts a task and returns its id.
func (r *Repository) Enqueue(ctx context.Context, t *Task) (int64, error) {
	if t.MaxAttempts == 0 {
		t.MaxAttempts = defaultMaxAttempts
	}
	if t.ScheduledAt.IsZero() {
		t.ScheduledAt = time.Now()
	}
	now := millis(time.Now())
	q := `INSERT INTO tasks(type, payload, status, attempts, max_attempts, priority, scheduled_at, created, updated) VALUES(?,?,?,?,?,?,?,?,?)`
	res, err := r.db.Exec(ctx, q, t.Type, string(t.Payload), StatusQueued, t.Attempts, t.MaxAttempts, t.Priority, millis(t.ScheduledAt), now, now)
	if err != nil {
		return 0, fmt.Errorf("enqueue failed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	t.ID = id
	t.Status = StatusQueued
	return id, nil
}

// Claim marks the next due task as running and returns it, or nil when
// nothing is due. Lower priority values run first.
func (r *Repository) Claim(ctx context.Context) (*Task, error) {
	now := millis(time.Now())
	q := `UPDATE tasks SET status = ?, updated = ?
		WHERE id = (
			SELECT id FROM tasks
			WHERE (status = ? OR status = ?) AND (next_try_at IS NULL OR next_try_at <= ?) AND scheduled_at <= ?
			ORDER BY priority ASC, scheduled_at ASC, id ASC LIMIT 1
		)
		RETURNING id, type, payload, status, attempts, max_attempts, priority, scheduled_at, next_try_at, last_error, created, updated`
	row := r.db.QueryRow(ctx, q, StatusRunning, now, StatusQueued, StatusRetry, now, now)

	var (
		t           Task
		payload     sql.NullString
		scheduledAt int64
		nextTry     sql.NullInt64
		lastError   sql.NullString
		created     int64
		updated     int64
	)
	if err := row.Scan(&t.ID, &t.Type, &payload, &t.Status, &t.Attempts, &t.MaxAttempts, &t.Priority, &scheduledAt, &nextTry, &lastError, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim next task: %w", err)
	}
	t.ScheduledAt = fromMillis(scheduledAt)
	t.Created = fromMillis(created)
	t.Updated = fromMillis(updated)
	if payload.Valid {
		t.Payload = json.RawMessage(payload.String)
	}
	if nextTry.Valid {
		nt := fromMillis(nextTry.Int64)
		t.NextTryAt = &nt
	}
	if lastError.Valid {
		t.LastError = lastError.String
	}
	return &t, nil
}

// Update persists status, attempts, next_try_at and last_error.
func (r *Repository) Update(ctx context.Context, t *Task) error {
	var nextTry any
	if t.NextTryAt != nil {
		nextTry = millis(*t.NextTryAt)
	}
	q := `UPDATE tasks SET status = ?, attempts = ?, next_try_at = ?, last_error = ?, updated = ? WHERE id = ?`
	if _, err := r.db.Exec(ctx, q, t.Status, t.Attempts, nextTry, t.LastError, millis(time.Now()), t.ID); err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return nil
}

// Get returns the task with id, or nil when it is not in the tasks table.
func (r *Repository) Get(ctx context.Context, id int64) (*Task, error) {
	var (
		t         Task
		lastError sql.NullString
	)
	err := r.db.QueryRow(ctx, `SELECT id, type, status, attempts, max_attempts, last_error FROM tasks WHERE id = ?`, id).
		Scan(&t.ID, &t.Type, &t.Status, &t.Attempts, &t.MaxAttempts, &lastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	t.LastError = lastError.String
	return &t, nil
}

// MoveToDeadLetter copies the task to dead_letter_tasks and removes it from
// the queue in one transaction.
func (r *Repository) MoveToDeadLetter(ctx context.Context, t *Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	insert := `INSERT INTO dead_letter_tasks(task_id, type, payload, attempts, last_error, failed_at) VALUES(?,?,?,?,?,?)`
	if _, err := tx.ExecContext(ctx, insert, t.ID, t.Type, string(t.Payload), t.Attempts, t.LastError, millis(time.Now())); err != nil {
		return fmt.Errorf("insert dead letter: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, t.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return tx.Commit()
}

// DeadLetterCount returns how many dead letters exist for the given task type.
func (r *Repository) DeadLetterCount(ctx context.Context, typ string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM dead_letter_tasks WHERE type = ?`, typ).Scan(&n); err != nil {
		return 0, fmt.Errorf("count dead letters: %w", err)
	}
	return n, nil
}

// ResetRunning puts tasks left running by a previous process back in the
// queue.
func (r *Repository) ResetRunning(ctx context.Context) (int64, error) {
	res, err := r.db.Exec(ctx, `UPDATE tasks SET status = ?, updated = ? WHERE status = ?`, StatusQueued, millis(time.Now()), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("reset running tasks: %w", err)
	}
	return res.RowsAffected()
}
