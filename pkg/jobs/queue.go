package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueClosed is returned by Enqueue before Start or after Stop.
var ErrQueueClosed = errors.New("queue is not running")

// Job is a unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job. A returned error schedules a retry.
type Handler func(context.Context, Job) error

// ExhaustedFunc is called once a job has failed MaxRetries times.
type ExhaustedFunc func(context.Context, Job, error)

// QueueConfig configures worker pool behaviour.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	// MaxRetryDelay caps the doubling backoff between attempts.
	MaxRetryDelay time.Duration
	OnExhausted   ExhaustedFunc
	Logger        *zap.Logger
}

// Queue dispatches jobs to a fixed pool of goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	logger  *zap.Logger

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	state  queueState
}

type queueState int

const (
	stateIdle queueState = iota
	stateRunning
	stateStopped
)

// NewQueue builds a queue named name that runs handler for every job.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calls after the first are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.state = stateRunning
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for in-flight jobs to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return
	}
	q.state = stateStopped
	q.cancel()
	q.mu.Unlock()

	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Enqueue hands job to the pool, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx, state := q.ctx, q.state
	q.mu.Unlock()

	if state != stateRunning {
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	case q.jobs <- job:
		return nil
	}
}

// Pending reports how many jobs are buffered.
func (q *Queue) Pending() int {
	return len(q.jobs)
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if err := q.handler(q.ctx, job); err != nil {
				q.handleFailure(workerID, job, err)
			}
		}
	}
}

func (q *Queue) handleFailure(workerID int, job Job, err error) {
	job.Attempt++
	fields := []zap.Field{
		zap.Int("worker", workerID),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	}
	if job.Attempt >= q.cfg.MaxRetries {
		q.logger.Error("job exhausted retries", fields...)
		if q.cfg.OnExhausted != nil {
			q.cfg.OnExhausted(q.ctx, job, err)
		}
		return
	}
	q.logger.Warn("job failed, retrying", fields...)

	delay := q.backoff(job.Attempt)
	q.wg.Add(1)
	go func(j Job) {
		defer q.wg.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			return
		case <-timer.C:
			if err := q.Enqueue(j); err != nil {
				q.logger.Error("failed to requeue job", zap.String("job_id", j.ID), zap.Error(err))
			}
		}
	}(job)
}

func (q *Queue) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.cfg.MaxRetryDelay {
			return q.cfg.MaxRetryDelay
		}
	}
	return delay
}
