package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"NewsAlerter/internal/ports"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// LoopScheduler is the fallback driver: wait interval, run, and on any error
// or panic wait an extra cooldown before the next wait. It only exits when
// its context is cancelled.
type LoopScheduler struct {
	interval time.Duration
	cooldown time.Duration
	sleep    SleepFunc
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	state  stateBox
}

var _ ports.Scheduler = (*LoopScheduler)(nil)

// NewLoopScheduler builds the fallback driver. sleep may be nil.
func NewLoopScheduler(interval, cooldown time.Duration, sleep SleepFunc, logger *slog.Logger) *LoopScheduler {
	if sleep == nil {
		sleep = sleepContext
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LoopScheduler{interval: interval, cooldown: cooldown, sleep: sleep, logger: logger}
}

// Name identifies the driver.
func (l *LoopScheduler) Name() string {
	return "loop"
}

// State reports the driver state.
func (l *LoopScheduler) State() string {
	return l.state.get()
}

// Start launches the loop goroutine.
func (l *LoopScheduler) Start(ctx context.Context, job ports.Job) error {
	if job == nil {
		return fmt.Errorf("loop scheduler: nil job")
	}
	if l.interval <= 0 {
		return fmt.Errorf("loop scheduler: interval must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.state.set(StateWaiting)

	go l.run(loopCtx, job, l.done)

	l.logger.Info("backup news checker started", "interval", l.interval, "cooldown", l.cooldown)
	return nil
}

func (l *LoopScheduler) run(ctx context.Context, job ports.Job, done chan struct{}) {
	defer close(done)
	defer l.state.set(StateStopped)

	for {
		l.state.set(StateWaiting)
		if err := l.sleep(ctx, l.interval); err != nil {
			return
		}

		l.state.set(StateRunning)
		err := runGuarded(ctx, job)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		l.logger.Error("news check failed, cooling down", "error", err, "cooldown", l.cooldown)
		l.state.set(StateCooldown)
		if err := l.sleep(ctx, l.cooldown); err != nil {
			return
		}
	}
}

// runGuarded turns a panic into an error.
func runGuarded(ctx context.Context, job ports.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in scheduled job: %v\n%s", r, debug.Stack())
		}
	}()
	return job(ctx, time.Now())
}

// Stop cancels the loop and waits for it to exit, bounded by ctx.
func (l *LoopScheduler) Stop(ctx context.Context) error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()

	if done == nil {
		return nil
	}

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("loop scheduler stop: %w", ctx.Err())
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
