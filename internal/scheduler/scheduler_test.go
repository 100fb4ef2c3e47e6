package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"propintel/server/config"
	"propintel/server/internal/intelligence"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestScheduler_RunsOnStartupAndInterval(t *testing.T) {
	var runs atomic.Int32
	job := func(ctx context.Context) (intelligence.BatchResult, error) {
		runs.Add(1)
		return intelligence.BatchResult{Updated: 1}, nil
	}

	s := NewScheduler(job, config.SchedulerConfig{
		Enabled:      true,
		Interval:     20 * time.Millisecond,
		RunOnStartup: true,
	}, quietLogger())
	s.Start()

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load(), "no runs after Stop")
}

func TestScheduler_NoStartupRun(t *testing.T) {
	var runs atomic.Int32
	job := func(ctx context.Context) (intelligence.BatchResult, error) {
		runs.Add(1)
		return intelligence.BatchResult{}, nil
	}

	s := NewScheduler(job, config.SchedulerConfig{Interval: time.Hour}, quietLogger())
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), runs.Load())
}

func TestScheduler_RunsAreSerialized(t *testing.T) {
	var active, maxActive atomic.Int32
	job := func(ctx context.Context) (intelligence.BatchResult, error) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		active.Add(-1)
		return intelligence.BatchResult{}, errors.New("partial failure")
	}

	s := NewScheduler(job, config.SchedulerConfig{Interval: time.Hour}, quietLogger())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RunNow("manual")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive.Load())
}
