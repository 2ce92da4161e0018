package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsAlerter/internal/ports"
)

// startCheckTimeout bounds the wait for the cron loop to report the job.
const startCheckTimeout = 2 * time.Second

// CronScheduler runs the job on a robfig/cron constant-delay schedule. The
// first run happens after initialDelay, then every interval. Overlapping
// runs are skipped and panics are recovered by the cron job chain.
type CronScheduler struct {
	interval     time.Duration
	initialDelay time.Duration
	logger       *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
	state  stateBox
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a managed scheduler.
func NewCronScheduler(interval, initialDelay time.Duration, logger *slog.Logger) *CronScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CronScheduler{interval: interval, initialDelay: initialDelay, logger: logger}
}

// Name identifies the driver.
func (c *CronScheduler) Name() string {
	return "managed"
}

// State reports the driver state.
func (c *CronScheduler) State() string {
	return c.state.get()
}

// Start registers the job and confirms the cron loop picked it up. It fails
// when the schedule cannot be honoured or the loop does not report a next
// run, so the caller can fall back to another driver.
func (c *CronScheduler) Start(ctx context.Context, job ports.Job) error {
	if job == nil {
		return fmt.Errorf("cron scheduler: nil job")
	}
	if c.interval < time.Second {
		return fmt.Errorf("cron scheduler: interval %s is below the 1s resolution", c.interval)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cron scheduler: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cron != nil {
		return nil
	}

	jobCtx, cancel := context.WithCancel(ctx)
	logger := cronLogger{logger: c.logger}
	runner := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	schedule := &delayedSchedule{
		first: time.Now().Add(c.initialDelay),
		every: cron.Every(c.interval),
	}
	runner.Schedule(schedule, cron.FuncJob(func() {
		c.state.set(StateRunning)
		defer c.state.set(StateWaiting)

		if err := job(jobCtx, time.Now()); err != nil {
			c.logger.Error("scheduled cycle failed", "error", err)
		}
	}))

	runner.Start()
	next, err := awaitNextRun(ctx, runner)
	if err != nil {
		cancel()
		runner.Stop()
		return err
	}
	c.cron = runner
	c.cancel = cancel
	c.state.set(StateWaiting)

	c.logger.Info("managed scheduler started", "interval", c.interval, "first_run_at", next)
	return nil
}

// awaitNextRun asks the running cron loop for its entries. The loop answers
// only once it has computed next activations, so a registered entry with a
// non-zero Next proves the schedule is live.
func awaitNextRun(ctx context.Context, runner *cron.Cron) (time.Time, error) {
	entries := make(chan []cron.Entry, 1)
	go func() { entries <- runner.Entries() }()

	select {
	case got := <-entries:
		if len(got) != 1 || got[0].Next.IsZero() {
			return time.Time{}, fmt.Errorf("cron scheduler: job has no next activation")
		}
		return got[0].Next, nil
	case <-time.After(startCheckTimeout):
		return time.Time{}, fmt.Errorf("cron scheduler: loop did not respond within %s", startCheckTimeout)
	case <-ctx.Done():
		return time.Time{}, fmt.Errorf("cron scheduler: %w", ctx.Err())
	}
}

// Stop halts the schedule and waits for a running job up to ctx.
func (c *CronScheduler) Stop(ctx context.Context) error {
	c.mu.Lock()
	runner, cancel := c.cron, c.cancel
	c.cron, c.cancel = nil, nil
	c.mu.Unlock()

	if runner == nil {
		return nil
	}

	cancel()
	done := runner.Stop()
	defer c.state.set(StateStopped)

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("cron scheduler stop: %w", ctx.Err())
	}
}

// delayedSchedule fires once at first and then on a constant delay. Next is
// only called from the cron goroutine.
type delayedSchedule struct {
	first time.Time
	every cron.ConstantDelaySchedule
	fired bool
}

func (s *delayedSchedule) Next(t time.Time) time.Time {
	if !s.fired {
		s.fired = true
		return s.first
	}
	return s.every.Next(t)
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
