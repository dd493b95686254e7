package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/policy-extract/internal/batch"
	"github.com/joseph-ayodele/policy-extract/internal/llm"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// ProcessorQueue runs batch processing in the background. Each worker claims
// tasks through the batch, so a task is never processed twice; completion
// order follows intake order only with a single worker.
type ProcessorQueue struct {
	batch     *batch.Batch
	extractor llm.Extractor
	logger    *slog.Logger
	workers   int
	timeout   time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

// WithProcessTimeout bounds a single extraction.
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(b *batch.Batch, ex llm.Extractor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		batch:     b,
		extractor: ex,
		logger:    logger,
		workers:   1,
		timeout:   3 * time.Minute,
		ch:        make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	b.OnClear(q.discardQueued)
	q.start()
	return q
}

// discardQueued drops jobs submitted before the batch was cleared. Jobs
// already picked up by a worker finish as stale claims.
func (q *ProcessorQueue) discardQueued() {
	n := 0
	for {
		select {
		case _, ok := <-q.ch:
			if !ok {
				return
			}
			n++
		default:
			if n > 0 {
				q.logger.Info("discarded queued jobs after batch clear", "jobs", n)
			}
			return
		}
	}
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.handle(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) handle(workerID int, job Job) {
	log := q.logger.With("worker_id", workerID, "trace_id", job.TraceID)

	if job.TaskID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()
		ran, err := q.batch.ProcessTask(ctx, q.extractor, job.TaskID)
		switch {
		case err != nil:
			log.Warn("task processing skipped", "task_id", job.TaskID, "error", err)
		case !ran:
			log.Debug("task not pending", "task_id", job.TaskID)
		default:
			log.Info("processed task", "task_id", job.TaskID)
		}
		return
	}

	var stats batch.ProcessStats
	gen := q.batch.ID()
	for q.batch.ID() == gen {
		c, ok := q.batch.ClaimNext()
		if !ok {
			break
		}
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		s := q.batch.Run(ctx, q.extractor, c)
		cancel()
		stats.Claimed += s.Claimed
		stats.Done += s.Done
		stats.Failed += s.Failed
		stats.Dropped += s.Dropped
	}
	log.Info("drained pending tasks",
		"claimed", stats.Claimed,
		"done", stats.Done,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
		"queued_ms", time.Since(job.SubmittedAt).Milliseconds(),
	)
}

// Enqueue submits a job. It blocks while the queue is full.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "task_id", job.TaskID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued processing job", "task_id", job.TaskID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "task_id", job.TaskID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
