package queue

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefreshQueue(t *testing.T) {
	logger := logrus.New()
	q := NewRefreshQueue(10, logger)
	assert.NotNil(t, q)
	assert.Equal(t, 10, q.Cap())
	assert.False(t, q.IsClosed())
}

func TestRefreshQueue_Push(t *testing.T) {
	logger := logrus.New()
	q := NewRefreshQueue(2, logger)

	// Test successful push
	ids := []int64{1, 2}
	err := q.Push(ids)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())

	// Fill the buffer
	assert.NoError(t, q.Push([]int64{3}))
	err = q.Push(ids)
	assert.ErrorIs(t, err, ErrQueueFull)

	// Test closed queue
	q.Close()
	err = q.Push(ids)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestRefreshQueue_PushDeduplicates(t *testing.T) {
	q := NewRefreshQueue(10, nil)
	defer q.Close()

	ids := []int64{4, 2, 4, 9, 2}
	require.NoError(t, q.Push(ids))
	ids[0] = 100

	batch := <-q.pending
	assert.Equal(t, []int64{4, 2, 9}, batch)

	require.NoError(t, q.Push(nil))
	assert.Equal(t, 0, q.Len())
}

func TestRefreshQueue_Subscribe(t *testing.T) {
	logger := logrus.New()
	q := NewRefreshQueue(10, logger)
	defer q.Close()

	var processed []int64
	var mu sync.Mutex

	q.Subscribe(func(ids []int64) error {
		mu.Lock()
		processed = append(processed, ids...)
		mu.Unlock()
		return nil
	})

	q.Start()

	require.NoError(t, q.Push([]int64{7, 8}))
	require.NoError(t, q.Push([]int64{9}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(processed) == 3
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []int64{7, 8, 9}, processed)
	mu.Unlock()
}

func TestRefreshQueue_Close(t *testing.T) {
	logger := logrus.New()
	q := NewRefreshQueue(10, logger)

	// Test first close
	err := q.Close()
	assert.NoError(t, err)
	assert.True(t, q.IsClosed())

	// Test second close (should be no-op)
	err = q.Close()
	assert.NoError(t, err)
}

func TestRefreshQueue_ProcessBatch(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	q := NewRefreshQueue(10, logger)
	defer q.Close()

	var wg sync.WaitGroup
	processedBatches := 0
	var mu sync.Mutex

	// A failing handler does not keep the others from seeing the batch
	for i := 0; i < 3; i++ {
		wg.Add(1)
		fail := i == 0
		q.Subscribe(func(ids []int64) error {
			mu.Lock()
			processedBatches++
			mu.Unlock()
			wg.Done()
			if fail {
				return errors.New("refresh failed")
			}
			return nil
		})
	}

	q.Start()

	err := q.Push([]int64{1})
	assert.NoError(t, err)

	wg.Wait()

	mu.Lock()
	assert.Equal(t, 3, processedBatches)
	mu.Unlock()
}
