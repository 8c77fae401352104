package tasks_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	dbfs "github.com/Alpho052/career-guidance-platform/db"
	"github.com/Alpho052/career-guidance-platform/internal/db"
	"github.com/Alpho052/career-guidance-platform/internal/tasks"
)

func newRepo(t *testing.T) *tasks.Repository {
	t.Helper()
	ctx := context.Background()
	d, err := db.New(ctx, ":memory:")
	if err != nil {
		t.Fatalf("db.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	if err := db.Migrate(ctx, d, dbfs.Migrations); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return tasks.NewRepository(d)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestBackoffDuration(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, 5 * time.Minute},
		{64, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := tasks.BackoffDuration(tt.attempt); got != tt.want {
			t.Fatalf("BackoffDuration(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRepository_ClaimOrder(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	if task, err := repo.Claim(ctx); err != nil || task != nil {
		t.Fatalf("empty queue: got %v, %v", task, err)
	}

	low := &tasks.Task{Type: "low", Payload: []byte(`{}`), Priority: 200}
	high := &tasks.Task{Type: "high", Payload: []byte(`{"a":1}`), Priority: 10}
	later := &tasks.Task{Type: "later", Payload: []byte(`{}`), Priority: 1, ScheduledAt: time.Now().Add(time.Hour)}
	for _, task := range []*tasks.Task{low, high, later} {
		if _, err := repo.Enqueue(ctx, task); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	first, err := repo.Claim(ctx)
	if err != nil || first == nil {
		t.Fatalf("Claim: %v %v", first, err)
	}
	if first.Type != "high" || first.Status != tasks.StatusRunning || string(first.Payload) != `{"a":1}` {
		t.Fatalf("unexpected first task %+v", first)
	}
	second, _ := repo.Claim(ctx)
	if second == nil || second.Type != "low" {
		t.Fatalf("unexpected second task %+v", second)
	}
	if third, _ := repo.Claim(ctx); third != nil {
		t.Fatalf("scheduled task claimed early: %+v", third)
	}

	n, err := repo.ResetRunning(ctx)
	if err != nil || n != 2 {
		t.Fatalf("ResetRunning = %d, %v; want 2", n, err)
	}
}

func TestWorkerPool_EnqueueAndProcess(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	handled := make(chan string, 1)
	handlers := map[string]tasks.Handler{
		"test": func(ctx context.Context, task *tasks.Task) error {
			var p struct{ Foo string }
			if err := task.Decode(&p); err != nil {
				return err
			}
			handled <- p.Foo
			return nil
		},
	}
	pool := tasks.NewWorkerPool(repo, handlers, zap.NewNop(), 1)
	pool.SetPollInterval(10 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "test", map[string]string{"foo": "bar"}, 10, 3)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case got := <-handled:
		if got != "bar" {
			t.Fatalf("payload = %q", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("handler was not called")
	}

	waitFor(t, "task done", func() bool {
		task, err := repo.Get(ctx, id)
		return err == nil && task != nil && task.Status == tasks.StatusDone
	})
}

func TestWorkerPool_RetryThenDeadLetter(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	core, logs := observer.New(zapcore.InfoLevel)

	var calls atomic.Int32
	handlers := map[string]tasks.Handler{
		"flaky": func(ctx context.Context, task *tasks.Task) error {
			calls.Add(1)
			return errors.New("downstream unavailable")
		},
	}
	pool := tasks.NewWorkerPool(repo, handlers, zap.New(core), 1)
	pool.SetPollInterval(10 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "flaky", nil, 10, 1)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	waitFor(t, "dead letter", func() bool {
		n, err := repo.DeadLetterCount(ctx, "flaky")
		return err == nil && n == 1
	})
	if task, _ := repo.Get(ctx, id); task != nil {
		t.Fatalf("dead task still queued: %+v", task)
	}
	if calls.Load() != 1 {
		t.Fatalf("handler calls = %d, want 1", calls.Load())
	}
	if logs.FilterMessage("task failed permanently").Len() != 1 {
		t.Fatalf("expected permanent failure log, got %v", logs.All())
	}
}

func TestWorkerPool_RetrySchedulesBackoff(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	handlers := map[string]tasks.Handler{
		"flaky": func(ctx context.Context, task *tasks.Task) error { return errors.New("nope") },
	}
	pool := tasks.NewWorkerPool(repo, handlers, nil, 1)
	pool.SetPollInterval(10 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	id, err := pool.Enqueue(ctx, "flaky", nil, 10, 5)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitFor(t, "retry status", func() bool {
		task, err := repo.Get(ctx, id)
		return err == nil && task != nil && task.Status == tasks.StatusRetry && task.Attempts == 1 && task.LastError == "nope"
	})
}

func TestWorkerPool_UnknownTypeDeadLetters(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	pool := tasks.NewWorkerPool(repo, map[string]tasks.Handler{}, nil, 2)
	pool.SetPollInterval(10 * time.Millisecond)
	pool.Start(ctx)
	defer pool.Stop()

	if err := pool.Submit(ctx, "mystery", map[string]int{"n": 1}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, "dead letter", func() bool {
		n, err := repo.DeadLetterCount(ctx, "mystery")
		return err == nil && n == 1
	})
}

func TestWorkerPool_StopIsIdempotent(t *testing.T) {
	pool := tasks.NewWorkerPool(newRepo(t), nil, nil, 3)
	pool.Start(context.Background())
	pool.Stop()
	pool.Stop()
}

func TestInline_Submit(t *testing.T) {
	var got string
	inline := tasks.NewInline(map[string]tasks.Handler{
		tasks.TypeMailVerification: func(ctx context.Context, task *tasks.Task) error {
			var p struct{ Email string }
			if err := task.Decode(&p); err != nil {
				return err
			}
			got = p.Email
			return nil
		},
		"broken": func(ctx context.Context, task *tasks.Task) error { return errors.New("broken") },
	}, nil)

	if err := inline.Submit(context.Background(), tasks.TypeMailVerification, map[string]string{"email": "a@b.io"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got != "a@b.io" {
		t.Fatalf("handler saw %q", got)
	}
	if err := inline.Submit(context.Background(), "broken", nil); err == nil {
		t.Fatalf("expected handler error")
	}
	if err := inline.Submit(context.Background(), "unknown", nil); !errors.Is(err, tasks.ErrNoHandler) {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}
