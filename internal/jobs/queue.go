// Package jobs runs document ingestion in the background: a bounded queue
// feeding a worker pool, with retry and at most one in-flight job per
// document. A reprocess request for a document that is still being processed
// is rejected instead of racing the running job over the same chunks.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAlreadyInFlight = errors.New("document is already being processed")
	ErrQueueFull       = errors.New("ingestion queue is full")
	ErrStopped         = errors.New("ingestion queue is stopped")
)

// Handler processes one document end to end. A non-nil error triggers a retry
// up to the configured attempt limit.
type Handler func(ctx context.Context, documentID uuid.UUID) error

type Queue struct {
	jobs        chan uuid.UUID
	handler     Handler
	workers     int
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger

	mu       sync.Mutex
	inflight map[uuid.UUID]struct{}
	stopped  bool

	wg sync.WaitGroup
}

func NewQueue(workers, queueSize, maxAttempts int, handler Handler, logger *zap.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Queue{
		jobs:        make(chan uuid.UUID, queueSize),
		handler:     handler,
		workers:     workers,
		maxAttempts: maxAttempts,
		baseDelay:   time.Second,
		logger:      logger,
	}
}

// Start launches the worker pool. Workers exit when the context is canceled
// or the queue is stopped.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.inflight == nil {
		q.inflight = make(map[uuid.UUID]struct{})
	}
	q.mu.Unlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Enqueue schedules processing of a document. Returns ErrAlreadyInFlight when
// a job for the same document is queued or running. The buffered send happens
// under the same lock Stop takes before closing the channel, so Enqueue can
// never send on a closed channel.
func (q *Queue) Enqueue(documentID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.stopped {
		return ErrStopped
	}
	if q.inflight == nil {
		q.inflight = make(map[uuid.UUID]struct{})
	}
	if _, exists := q.inflight[documentID]; exists {
		return ErrAlreadyInFlight
	}

	select {
	case q.jobs <- documentID:
		q.inflight[documentID] = struct{}{}
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop prevents further enqueues and waits for running jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	q.mu.Unlock()

	close(q.jobs)
	q.wg.Wait()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case documentID, ok := <-q.jobs:
			if !ok {
				return
			}
			q.run(ctx, documentID)
		}
	}
}

func (q *Queue) run(ctx context.Context, documentID uuid.UUID) {
	defer q.release(documentID)

	var err error
	for attempt := 1; attempt <= q.maxAttempts; attempt++ {
		err = q.handler(ctx, documentID)
		if err == nil {
			return
		}

		q.logger.Warn("Ingestion attempt failed",
			zap.String("document_id", documentID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt == q.maxAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.backoff(attempt)):
		}
	}

	q.logger.Error("Ingestion gave up",
		zap.String("document_id", documentID.String()),
		zap.Int("attempts", q.maxAttempts),
		zap.Error(err),
	)
}

func (q *Queue) backoff(attempt int) time.Duration {
	d := q.baseDelay << (attempt - 1)
	if d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}

func (q *Queue) release(documentID uuid.UUID) {
	q.mu.Lock()
	delete(q.inflight, documentID)
	q.mu.Unlock()
}
