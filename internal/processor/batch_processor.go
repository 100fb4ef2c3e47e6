package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propintel/server/config"
	"propintel/server/internal/queue"
	"propintel/server/internal/scoring"
)

var ErrProcessorStopped = errors.New("processor is stopped")

// Refresher runs a full intelligence update for one property
type Refresher interface {
	UpdatePropertyIntelligence(ctx context.Context, id int64) (*scoring.Result, error)
}

// BatchProcessor refreshes the property id batches pushed onto the refresh
// queue, one property at a time
type BatchProcessor struct {
	refresher Refresher
	logger    *logrus.Logger
	config    config.QueueConfig
	queue     *queue.RefreshQueue
	inflight  sync.WaitGroup
	mu        sync.Mutex
	stopped   bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(refresher Refresher, queue *queue.RefreshQueue, config config.QueueConfig, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		refresher: refresher,
		queue:     queue,
		config:    config,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start subscribes the processor to the queue
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(p.handle)
}

// Stop cancels pending retries and waits for the batch in flight
func (p *BatchProcessor) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.cancel()
	p.inflight.Wait()
}

func (p *BatchProcessor) handle(ids []int64) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrProcessorStopped
	}
	p.inflight.Add(1)
	p.mu.Unlock()
	defer p.inflight.Done()

	return p.processBatch(ids)
}

// processBatch refreshes every id in the batch; a failing property does not
// stop the rest of the batch
func (p *BatchProcessor) processBatch(ids []int64) error {
	failed := 0
	for _, id := range ids {
		if err := p.refreshWithRetry(id); err != nil {
			if errors.Is(err, context.Canceled) {
				return ErrProcessorStopped
			}
			failed++
			p.logger.WithError(err).WithField("property_id", id).Error("Property refresh failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("failed to refresh %d of %d properties", failed, len(ids))
	}
	p.logger.WithField("batch_size", len(ids)).Info("Successfully refreshed batch")
	return nil
}

func (p *BatchProcessor) refreshWithRetry(id int64) error {
	var err error
	for attempt := 0; attempt <= p.config.MaxRetries; attempt++ {
		if attempt > 0 {
			p.logger.WithFields(logrus.Fields{
				"property_id": id,
				"attempt":     attempt,
				"max_retries": p.config.MaxRetries,
			}).Info("Retrying property refresh")

			select {
			case <-p.ctx.Done():
				return p.ctx.Err()
			case <-time.After(p.config.RetryDelay):
			}
		}

		_, err = p.refresher.UpdatePropertyIntelligence(p.ctx, id)
		if err == nil {
			return nil
		}
		if p.ctx.Err() != nil {
			return p.ctx.Err()
		}
	}

	return fmt.Errorf("failed to refresh property %d after %d attempts: %w", id, p.config.MaxRetries+1, err)
}
