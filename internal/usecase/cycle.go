package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/metrics"
	"NewsAlerter/internal/ports"
)

// RecipientLister exposes the current subscriber ids.
type RecipientLister interface {
	Recipients() []int64
}

// CycleDeps wires all collaborators of one alert cycle.
type CycleDeps struct {
	Fetcher    *NewsFetcher
	Dispatcher *Dispatcher
	Recipients RecipientLister
	Sink       ports.MessageSink
	Price      ports.PriceSource
	Formatter  Formatter
	Metrics    *metrics.Metrics
	Location   *time.Location
	Logger     *slog.Logger
}

// AlertCycle runs fetch, dispatch and delivery once per trigger.
type AlertCycle struct {
	running sync.Mutex

	fetcher    *NewsFetcher
	dispatcher *Dispatcher
	recipients RecipientLister
	sink       ports.MessageSink
	price      ports.PriceSource
	formatter  Formatter
	metrics    *metrics.Metrics
	location   *time.Location
	logger     *slog.Logger
}

// NewAlertCycle constructs the orchestration component.
func NewAlertCycle(deps CycleDeps) *AlertCycle {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &AlertCycle{
		fetcher:    deps.Fetcher,
		dispatcher: deps.Dispatcher,
		recipients: deps.Recipients,
		sink:       deps.Sink,
		price:      deps.Price,
		formatter:  deps.Formatter,
		metrics:    deps.Metrics,
		location:   deps.Location,
		logger:     deps.Logger,
	}
}

// Run executes one cycle. A concurrent call returns immediately without doing
// anything. Upstream fetch failures are returned so the scheduler can react.
func (c *AlertCycle) Run(ctx context.Context, trigger time.Time) error {
	if !c.running.TryLock() {
		c.logger.Warn("alert cycle already running, skipping trigger", "trigger", trigger)
		c.metrics.IncrementSkipped()
		return nil
	}
	defer c.running.Unlock()

	started := time.Now()
	c.logger.Info("running scheduled news check", "trigger", trigger.In(c.location).Format(time.DateTime))

	recipients := c.recipients.Recipients()
	if len(recipients) == 0 {
		c.logger.Info("no subscribers to alert")
		c.metrics.IncrementSkipped()
		return nil
	}

	articles, stats, err := c.fetcher.FetchForAlerts(ctx)
	if err != nil {
		c.metrics.SetError(err)
		return fmt.Errorf("alert cycle: %w", err)
	}
	c.metrics.AddDuplicates(stats.Duplicates)

	if len(articles) == 0 {
		c.logger.Info("no new articles found")
		c.metrics.RecordCycle(time.Since(started), 0, 0, 0)
		return nil
	}
	c.logger.Info("new articles to alert", "count", len(articles))

	intents := c.dispatcher.Dispatch(articles, recipients)
	if len(intents) == 0 {
		c.logger.Info("no recipient wants the new articles", "articles", len(articles))
		c.metrics.RecordCycle(time.Since(started), len(articles), 0, 0)
		return nil
	}

	quote := c.quote(ctx)
	report := c.dispatcher.Deliver(ctx, intents, c.sink, func(a domain.Article) string {
		return c.formatter.Article(a, quote, true)
	})

	c.metrics.RecordCycle(time.Since(started), len(articles), report.Sent, report.Failed)
	c.logger.Info("alert cycle done",
		"articles", len(articles), "sent", report.Sent, "failed", report.Failed,
		"duration", time.Since(started))
	return nil
}

// quote fetches market data; failures degrade to the placeholder.
func (c *AlertCycle) quote(ctx context.Context) *domain.Quote {
	return fetchQuote(ctx, c.price, c.logger)
}

func fetchQuote(ctx context.Context, price ports.PriceSource, logger *slog.Logger) *domain.Quote {
	if price == nil {
		return nil
	}
	q, err := price.Quote(ctx)
	if err != nil {
		logger.Warn("price quote unavailable", "error", err)
		return nil
	}
	return q
}
