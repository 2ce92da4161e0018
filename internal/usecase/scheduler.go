package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"NewsAlerter/internal/ports"
)

// Scheduler wires the alert cycle to the first driver that starts. Drivers
// are tried in order, so passing managed then loop gives the fallback
// behaviour.
type Scheduler struct {
	mu      sync.Mutex
	drivers []ports.Scheduler
	active  ports.Scheduler
	cycle   *AlertCycle
	logger  *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(cycle *AlertCycle, logger *slog.Logger, drivers ...ports.Scheduler) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{drivers: drivers, cycle: cycle, logger: logger}
}

// Start registers the cycle with the first driver that accepts it.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cycle == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return nil
	}

	var errs []error
	for _, driver := range s.drivers {
		if driver == nil {
			continue
		}
		if err := driver.Start(ctx, s.cycle.Run); err != nil {
			s.logger.Warn("scheduler unavailable, trying next", "scheduler", driver.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", driver.Name(), err))
			continue
		}
		s.active = driver
		s.logger.Info("scheduler started", "scheduler", driver.Name())
		return nil
	}

	if len(errs) == 0 {
		return fmt.Errorf("no scheduler configured")
	}
	return fmt.Errorf("start scheduler: %w", errors.Join(errs...))
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active == nil {
		return nil
	}
	return active.Stop(ctx)
}

// Mode names the running driver, or "none".
func (s *Scheduler) Mode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return "none"
	}
	return s.active.Name()
}

// State reports the driver state when the driver exposes one.
func (s *Scheduler) State() string {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if reporter, ok := active.(interface{ State() string }); ok {
		return reporter.State()
	}
	if active == nil {
		return "stopped"
	}
	return "running"
}
