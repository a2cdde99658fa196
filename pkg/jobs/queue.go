package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is a unit of background work routed to the handler registered for Type.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches jobs to per-type handlers on a fixed pool of goroutines.
// Failed jobs are re-enqueued after RetryDelay until MaxRetries is exceeded.
type Queue struct {
	name string

	handlersMu sync.RWMutex
	handlers   map[string]Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs      chan Job
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	started   bool
	processed atomic.Int64
	failed    atomic.Int64
}

// NewQueue builds a queue with no handlers registered.
func NewQueue(name string, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handlers:   make(map[string]Handler),
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger,
		jobs:       make(chan Job, cfg.BufferSize),
	}
}

// Register binds a handler to a job type, replacing any previous binding.
func (q *Queue) Register(jobType string, handler Handler) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[jobType] = handler
}

// Start begins worker consumption. Safe to call once.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.workers)
}

// Stop cancels workers and waits for them to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Sugar().Infow("queue stopped", "queue", q.name, "processed", q.processed.Load(), "failed", q.failed.Load())
}

// Enqueue pushes a job onto the queue, assigning an id when missing.
func (q *Queue) Enqueue(job Job) (string, error) {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return "", fmt.Errorf("queue %s not started", q.name)
	}
	if !q.hasHandler(job.Type) {
		return "", fmt.Errorf("queue %s: no handler for job type %q", q.name, job.Type)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.jobs <- job:
		return job.ID, nil
	}
}

// Stats returns the number of jobs that succeeded and that were dropped after retries.
func (q *Queue) Stats() (processed, failed int64) {
	return q.processed.Load(), q.failed.Load()
}

func (q *Queue) hasHandler(jobType string) bool {
	q.handlersMu.RLock()
	defer q.handlersMu.RUnlock()
	_, ok := q.handlers[jobType]
	return ok
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.handlersMu.RLock()
			handler := q.handlers[job.Type]
			q.handlersMu.RUnlock()
			if handler == nil {
				q.failed.Add(1)
				q.logger.Sugar().Errorw("job has no handler", "queue", q.name, "job_id", job.ID, "type", job.Type)
				continue
			}
			if err := handler(q.ctx, job); err != nil {
				q.handleFailure(job, err)
				continue
			}
			q.processed.Add(1)
		}
	}
}

func (q *Queue) handleFailure(job Job, err error) {
	job.Attempt++
	if job.Attempt > q.maxRetries {
		q.failed.Add(1)
		q.logger.Sugar().Errorw("job exceeded retries", "queue", q.name, "job_id", job.ID, "type", job.Type, "error", err)
		return
	}
	q.logger.Sugar().Warnw("job failed, retrying", "queue", q.name, "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", err)

	go func(j Job) {
		timer := time.NewTimer(q.retryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if _, err := q.Enqueue(j); err != nil {
				q.logger.Sugar().Errorw("failed to requeue job", "queue", q.name, "job_id", j.ID, "error", err)
			}
		}
	}(job)
}
