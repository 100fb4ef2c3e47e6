package scheduler

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propintel/server/config"
	"propintel/server/internal/intelligence"
)

// Job is a full pass over the stored properties
type Job func(ctx context.Context) (intelligence.BatchResult, error)

// Scheduler periodically refreshes the intelligence of every property
type Scheduler struct {
	job      Job
	config   config.SchedulerConfig
	logger   *logrus.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential job execution
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewScheduler creates a new scheduler
func NewScheduler(job Job, cfg config.SchedulerConfig, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		job:      job,
		config:   cfg,
		logger:   logger,
		stopChan: make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the scheduled runs
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.runScheduler()
}

func (s *Scheduler) runScheduler() {
	defer s.wg.Done()

	if s.config.RunOnStartup {
		s.RunNow("startup")
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.RunNow("scheduled")
		}
	}
}

// RunNow runs the job immediately, waiting for any run already in progress.
func (s *Scheduler) RunNow(trigger string) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	log := s.logger.WithField("trigger", trigger)
	log.Info("Starting intelligence refresh")

	result, err := s.job(s.ctx)
	if err != nil {
		log.WithError(err).Error("Intelligence refresh failed")
		return
	}

	log.WithFields(logrus.Fields{
		"updated": result.Updated,
		"errors":  result.Errors,
	}).Info("Intelligence refresh completed")
}

// Stop gracefully stops the scheduler, letting a running pass finish
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	s.cancel()
}
