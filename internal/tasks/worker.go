package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPriority = 100
	idleInterval    = 500 * time.Millisecond
	errorInterval   = time.Second
)

// WorkerPool polls the task table and runs each claimed task with the handler
// registered for its type. Failed tasks are retried with exponential backoff
// and moved to the dead letter table once attempts run out.
type WorkerPool struct {
	repo        *Repository
	handlers    map[string]Handler
	logger      *zap.Logger
	workerCount int
	idle        time.Duration

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewWorkerPool(repo *Repository, handlers map[string]Handler, logger *zap.Logger, workerCount int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerPool{
		repo:        repo,
		handlers:    handlers,
		logger:      logger,
		workerCount: workerCount,
		idle:        idleInterval,
		stop:        make(chan struct{}),
	}
}

// SetPollInterval changes how long an idle worker waits before polling again.
func (p *WorkerPool) SetPollInterval(d time.Duration) {
	if d > 0 {
		p.idle = d
	}
}

// Start requeues tasks orphaned by a previous run and launches the workers.
func (p *WorkerPool) Start(ctx context.Context) {
	if n, err := p.repo.ResetRunning(ctx); err != nil {
		p.logger.Error("reset running tasks", zap.Error(err))
	} else if n > 0 {
		p.logger.Info("requeued orphaned tasks", zap.Int64("count", n))
	}
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop signals workers to stop and waits for them.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.wg.Wait()
}

// wait blocks for d and reports false when the pool is stopping.
func (p *WorkerPool) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-p.stop:
		return false
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			p.logger.Debug("worker stopping", zap.Int("id", id))
			return
		case <-ctx.Done():
			p.logger.Debug("context canceled, worker exiting", zap.Int("id", id))
			return
		default:
		}

		task, err := p.repo.Claim(ctx)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("claim task", zap.Error(err))
			}
			if !p.wait(ctx, errorInterval) {
				return
			}
			continue
		}
		if task == nil {
			if !p.wait(ctx, p.idle) {
				return
			}
			continue
		}
		p.run(ctx, task)
	}
}

func (p *WorkerPool) run(ctx context.Context, task *Task) {
	log := p.logger.With(zap.Int64("task_id", task.ID), zap.String("type", task.Type))

	h, ok := p.handlers[task.Type]
	if !ok {
		task.Status = StatusFailed
		task.LastError = ErrNoHandler.Error()
		if err := p.repo.MoveToDeadLetter(ctx, task); err != nil {
			log.Error("move to dead letter", zap.Error(err))
		}
		log.Warn("task has no handler")
		return
	}

	err := h(ctx, task)
	if err == nil {
		task.Status = StatusDone
		task.NextTryAt = nil
		task.LastError = ""
		if upErr := p.repo.Update(ctx, task); upErr != nil {
			log.Error("mark task done", zap.Error(upErr))
		}
		return
	}

	task.Attempts++
	task.LastError = err.Error()
	if task.Attempts >= task.MaxAttempts {
		task.Status = StatusFailed
		if mvErr := p.repo.MoveToDeadLetter(ctx, task); mvErr != nil {
			log.Error("move to dead letter", zap.Error(mvErr))
		}
		log.Warn("task failed permanently", zap.Int("attempts", task.Attempts), zap.Error(fmt.Errorf("%w: %v", ErrMaxAttempts, err)))
		return
	}

	next := time.Now().Add(BackoffDuration(task.Attempts))
	task.NextTryAt = &next
	task.Status = StatusRetry
	if upErr := p.repo.Update(ctx, task); upErr != nil {
		log.Error("update task for retry", zap.Error(upErr))
	}
	log.Info("task scheduled for retry", zap.Int("attempts", task.Attempts), zap.Time("next_try_at", next), zap.Error(err))
}

// Enqueue persists a task with explicit priority and attempt budget.
func (p *WorkerPool) Enqueue(ctx context.Context, typ string, payload any, priority int, maxAttempts int) (int64, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	t := &Task{Type: typ, Payload: b, Priority: priority, MaxAttempts: maxAttempts, ScheduledAt: time.Now()}
	return p.repo.Enqueue(ctx, t)
}

// Submit enqueues with default priority and attempts.
func (p *WorkerPool) Submit(ctx context.Context, typ string, payload any) error {
	_, err := p.Enqueue(ctx, typ, payload, defaultPriority, defaultMaxAttempts)
	return err
}

// Inline runs handlers synchronously in the caller's goroutine. It is used
// when no workers are configured.
type Inline struct {
	handlers map[string]Handler
	logger   *zap.Logger
}

func NewInline(handlers map[string]Handler, logger *zap.Logger) *Inline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inline{handlers: handlers, logger: logger}
}

func (i *Inline) Submit(ctx context.Context, typ string, payload any) error {
	h, ok := i.handlers[typ]
	if !ok {
		return fmt.Errorf("%w for %s", ErrNoHandler, typ)
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	t := &Task{Type: typ, Payload: b, Status: StatusRunning, Attempts: 0, MaxAttempts: 1, ScheduledAt: time.Now()}
	if err := h(ctx, t); err != nil {
		i.logger.Warn("inline task failed", zap.String("type", typ), zap.Error(err))
		return err
	}
	return nil
}

var (
	_ Submitter = (*WorkerPool)(nil)
	_ Submitter = (*Inline)(nil)
)
