package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Task types handled by the server.
const (
	TypeNotifyJobPosted  = "notify.job_posted"
	TypeMailVerification = "mail.verification"
)

const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusRetry   = "retry"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// Task is a persisted unit of background work.
type Task struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduledAt"`
	NextTryAt   *time.Time      `json:"nextTryAt,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}

// Decode unmarshals the task payload into v.
func (t *Task) Decode(v any) error {
	return json.Unmarshal(t.Payload, v)
}

// Handler processes one task. A returned error schedules a retry.
type Handler func(ctx context.Context, t *Task) error

// Submitter accepts work for background processing.
type Submitter interface {
	Submit(ctx context.Context, typ string, payload any) error
}

var (
	ErrMaxAttempts = errors.New("max attempts reached")
	ErrNoHandler   = errors.New("no handler")
)

const maxBackoff = 5 * time.Minute

// BackoffDuration returns the delay before retry number attempt: 2^attempt
// seconds, capped at five minutes.
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	if attempt >= 9 {
		return maxBackoff
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}
