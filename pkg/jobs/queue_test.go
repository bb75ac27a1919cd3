package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRequiresStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	_, err := q.Enqueue(Job{Key: "a"})
	assert.Error(t, err)
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	var handled sync.WaitGroup
	var calls int32

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.Key == "block" {
			<-release
		}
		atomic.AddInt32(&calls, 1)
		handled.Done()
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())
	defer q.Stop()

	handled.Add(1)
	ok, err := q.Enqueue(Job{Key: "block"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)

	handled.Add(1)
	ok, err = q.Enqueue(Job{Key: "summary"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = q.Enqueue(Job{Key: "summary"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, q.Pending())

	close(release)
	handled.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	done := make(chan struct{})

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("boom")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 3, RetryDelay: time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{Key: "k"})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueStopRejectsNewJobs(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	q.Start(context.Background())
	q.Stop()

	_, err := q.Enqueue(Job{Key: "late"})
	assert.Error(t, err)
}
