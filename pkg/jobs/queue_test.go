package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	done := make(chan string, 2)
	q := NewQueue("test", func(_ context.Context, job Job) error {
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 2})

	require.ErrorIs(t, q.Enqueue(Job{ID: "early"}), ErrQueueClosed)

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "a"}))
	require.NoError(t, q.Enqueue(Job{ID: "b"}))

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.True(t, seen["a"] && seen["b"])
}

func TestQueueRetriesThenReportsExhaustion(t *testing.T) {
	var calls int32
	exhausted := make(chan Job, 1)
	q := NewQueue("retry", func(context.Context, Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("render failed")
	}, QueueConfig{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		OnExhausted: func(_ context.Context, job Job, err error) {
			exhausted <- job
		},
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "x"}))

	select {
	case job := <-exhausted:
		assert.Equal(t, 3, job.Attempt)
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job never exhausted")
	}
}

func TestQueueBackoffIsCapped(t *testing.T) {
	q := NewQueue("backoff", nil, QueueConfig{RetryDelay: time.Second, MaxRetryDelay: 5 * time.Second})
	assert.Equal(t, time.Second, q.backoff(1))
	assert.Equal(t, 2*time.Second, q.backoff(2))
	assert.Equal(t, 4*time.Second, q.backoff(3))
	assert.Equal(t, 5*time.Second, q.backoff(4))
}
