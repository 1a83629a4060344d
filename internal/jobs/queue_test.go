package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueue_ProcessesJob(t *testing.T) {
	done := make(chan uuid.UUID, 1)
	q := NewQueue(2, 8, 1, func(_ context.Context, documentID uuid.UUID) error {
		done <- documentID
		return nil
	}, zap.NewNop())
	q.Start(context.Background())
	defer q.Stop()

	documentID := uuid.New()
	require.NoError(t, q.Enqueue(documentID))

	select {
	case got := <-done:
		assert.Equal(t, documentID, got)
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	var attempts atomic.Int32
	done := make(chan struct{})
	q := NewQueue(1, 8, 3, func(_ context.Context, _ uuid.UUID) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient failure")
		}
		close(done)
		return nil
	}, zap.NewNop())
	q.baseDelay = time.Millisecond
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(uuid.New()))

	select {
	case <-done:
		assert.Equal(t, int32(3), attempts.Load())
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
}

func TestQueue_GivesUpAfterMaxAttempts(t *testing.T) {
	var attempts atomic.Int32
	q := NewQueue(1, 8, 2, func(_ context.Context, _ uuid.UUID) error {
		attempts.Add(1)
		return errors.New("permanent failure")
	}, zap.NewNop())
	q.baseDelay = time.Millisecond
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(uuid.New()))
	q.Stop()

	assert.Equal(t, int32(2), attempts.Load())
}

func TestQueue_RejectsDuplicateInFlight(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{}, 2)
	q := NewQueue(1, 8, 1, func(_ context.Context, _ uuid.UUID) error {
		started <- struct{}{}
		<-block
		return nil
	}, zap.NewNop())
	q.Start(context.Background())

	documentID := uuid.New()
	require.NoError(t, q.Enqueue(documentID))
	<-started

	err := q.Enqueue(documentID)
	assert.ErrorIs(t, err, ErrAlreadyInFlight)

	// A different document is still accepted.
	assert.NoError(t, q.Enqueue(uuid.New()))

	close(block)
	q.Stop()
}

func TestQueue_AllowsReEnqueueAfterCompletion(t *testing.T) {
	done := make(chan struct{}, 2)
	q := NewQueue(1, 8, 1, func(_ context.Context, _ uuid.UUID) error {
		done <- struct{}{}
		return nil
	}, zap.NewNop())
	q.Start(context.Background())
	defer q.Stop()

	documentID := uuid.New()
	require.NoError(t, q.Enqueue(documentID))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("first job never ran")
	}

	// The in-flight lock is released once the job finishes; poll briefly
	// since release happens after the handler returns.
	require.Eventually(t, func() bool {
		return q.Enqueue(documentID) == nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestQueue_FullQueueRejected(t *testing.T) {
	q := NewQueue(1, 1, 1, func(_ context.Context, _ uuid.UUID) error {
		return nil
	}, zap.NewNop())
	// Not started: the single buffered slot fills and stays full.

	require.NoError(t, q.Enqueue(uuid.New()))
	err := q.Enqueue(uuid.New())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestQueue_EnqueueRacingStop(t *testing.T) {
	// Producers hammer Enqueue while Stop closes the channel. Every call must
	// come back with a verdict instead of panicking on a closed channel.
	for i := 0; i < 50; i++ {
		q := NewQueue(2, 4, 1, func(_ context.Context, _ uuid.UUID) error {
			return nil
		}, zap.NewNop())
		q.Start(context.Background())

		var wg sync.WaitGroup
		for p := 0; p < 4; p++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					err := q.Enqueue(uuid.New())
					if err != nil {
						assert.True(t, errors.Is(err, ErrStopped) || errors.Is(err, ErrQueueFull), "unexpected error: %v", err)
					}
				}
			}()
		}
		q.Stop()
		wg.Wait()
	}
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q := NewQueue(1, 8, 1, func(_ context.Context, _ uuid.UUID) error {
		return nil
	}, zap.NewNop())
	q.Start(context.Background())
	q.Stop()

	err := q.Enqueue(uuid.New())
	assert.ErrorIs(t, err, ErrStopped)
}
