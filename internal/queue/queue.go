// Package queue buffers property id batches between the HTTP refresh endpoint
// and the refresh processor.
package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// BatchHandler refreshes one batch of property ids. Retries are the
// handler's business; the queue only logs a returned error.
type BatchHandler func(ids []int64) error

// RefreshQueue holds batches of property ids until a subscriber picks them
// up. Pushing never blocks: a full buffer rejects the batch so the caller can
// answer with a retry-later status.
type RefreshQueue struct {
	pending  chan []int64
	stop     chan struct{}
	capacity int
	logger   *logrus.Logger

	mu       sync.RWMutex
	closed   bool
	handlers []BatchHandler
}

func NewRefreshQueue(capacity int, logger *logrus.Logger) *RefreshQueue {
	if logger == nil {
		logger = logrus.New()
	}
	return &RefreshQueue{
		pending:  make(chan []int64, capacity),
		stop:     make(chan struct{}),
		capacity: capacity,
		logger:   logger,
	}
}

// Push enqueues a copy of ids with duplicates removed, keeping first-seen
// order. An empty batch is accepted and dropped.
func (q *RefreshQueue) Push(ids []int64) error {
	batch := uniqueIDs(ids)

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if len(batch) == 0 {
		return nil
	}

	select {
	case q.pending <- batch:
		q.logger.WithFields(logrus.Fields{
			"batch_size": len(batch),
			"pending":    len(q.pending),
		}).Debug("Queued property refresh")
		return nil
	default:
		return ErrQueueFull
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	batch := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		batch = append(batch, id)
	}
	return batch
}

// Subscribe registers a handler. Every handler sees every batch.
func (q *RefreshQueue) Subscribe(handler BatchHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start dispatches batches on a single goroutine, one at a time, until Close.
func (q *RefreshQueue) Start() {
	go func() {
		for {
			select {
			case <-q.stop:
				return
			case batch, ok := <-q.pending:
				if !ok {
					return
				}
				q.dispatch(batch)
			}
		}
	}()
}

func (q *RefreshQueue) dispatch(batch []int64) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handle := range handlers {
		if err := handle(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Property refresh batch failed")
		}
	}
}

// Close rejects further pushes. Batches still pending are dropped.
func (q *RefreshQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.stop)
	close(q.pending)
	return nil
}

// Len is the number of batches waiting.
func (q *RefreshQueue) Len() int {
	return len(q.pending)
}

func (q *RefreshQueue) Cap() int {
	return q.capacity
}

func (q *RefreshQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
