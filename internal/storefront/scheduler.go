package storefront

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const schedulerKey = "reconcile"

// RunFunc is one reconciliation pass
type RunFunc func(ctx context.Context) error

// Scheduler collapses bursts of cart events into single runs. Schedule arms a delayed
// run unless one is pending, running, or finished less than cooldown ago.
type Scheduler struct {
	run      RunFunc
	delay    time.Duration
	cooldown time.Duration
	logger   *zap.Logger
	now      func() time.Time

	group singleflight.Group

	mu       sync.Mutex
	timer    *time.Timer
	inFlight bool
	lastDone time.Time
}

func NewScheduler(run RunFunc, delay, cooldown time.Duration, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		run:      run,
		delay:    delay,
		cooldown: cooldown,
		logger:   logger,
		now:      time.Now,
	}
}

// Schedule reports whether a run was armed
func (s *Scheduler) Schedule() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil || s.inFlight {
		return false
	}
	if !s.lastDone.IsZero() && s.now().Sub(s.lastDone) < s.cooldown {
		return false
	}

	var t *time.Timer
	t = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.timer != t {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		if err := s.Trigger(context.Background()); err != nil {
			s.logger.Warn("Scheduled reconciliation failed", zap.Error(err))
		}
	})
	s.timer = t
	return true
}

// Cancel stops a pending run. It reports whether one was pending.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return false
	}
	s.timer.Stop()
	s.timer = nil
	return true
}

// Pending reports whether a run is armed but not started
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Trigger runs now. Concurrent callers share one execution and its error.
func (s *Scheduler) Trigger(ctx context.Context) error {
	_, err, _ := s.group.Do(schedulerKey, func() (interface{}, error) {
		s.mu.Lock()
		s.inFlight = true
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.inFlight = false
			s.lastDone = s.now()
			s.mu.Unlock()
		}()
		return nil, s.run(ctx)
	})
	return err
}
