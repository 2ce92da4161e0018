package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"NewsAlerter/internal/config"
	"NewsAlerter/internal/httpapi"
	"NewsAlerter/internal/infrastructure/ml"
	"NewsAlerter/internal/infrastructure/parser"
	"NewsAlerter/internal/infrastructure/scheduler"
	"NewsAlerter/internal/infrastructure/storage"
	"NewsAlerter/internal/infrastructure/telegram"
	"NewsAlerter/internal/logging"
	"NewsAlerter/internal/metrics"
	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/scanner"
	"NewsAlerter/internal/sentiment"
	"NewsAlerter/internal/store"
	"NewsAlerter/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	blob      ports.BlobStore
	seen      *store.ArticleStore
	prefs     *store.PreferenceStore
	scheduler *usecase.Scheduler
	bot       *telegram.Bot
	http      *httpapi.Server
}

// New builds the application and loads persisted state.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	blob, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	baseLogger.Info("storage ready", "backend", cfg.Storage.Backend)

	seen := store.NewArticleStore(blob, cfg.Alerts.SeenCapacity, baseLogger.With("component", "store.seen"))
	seen.Load(ctx)
	prefs := store.NewPreferenceStore(blob, baseLogger.With("component", "store.preferences"))
	prefs.Load(ctx)

	var scorer ports.SentimentScorer
	if cfg.Sentiment.Endpoint != "" {
		scorer = ml.NewClient(cfg.Sentiment)
	}
	classifier := sentiment.NewClassifier(scorer, baseLogger.With("component", "sentiment"))

	httpClient := &http.Client{Timeout: cfg.News.Timeout}
	registry := scanner.NewRegistry()
	registry.Register(parser.NewAlphaVantageScanner(httpClient, cfg.News.BaseURL, cfg.News.APIKey, baseLogger.With("component", "scanner.alphavantage")))
	registry.Register(parser.NewRSSScanner(httpClient, baseLogger.With("component", "scanner.rss")))
	source := parser.NewStrategySource(registry, cfg.News, baseLogger.With("component", "source"))

	var price ports.PriceSource
	formatter := usecase.Formatter{Topic: cfg.Topic.Name}
	if cfg.Price.IsEnabled() && cfg.Price.Symbol != "" {
		price = parser.NewQuoteClient(httpClient, cfg.News.BaseURL, cfg.News.APIKey, cfg.Price.Symbol)
		formatter.PriceSymbol = cfg.Price.Symbol
	}

	stats := metrics.New()
	fetcher := usecase.NewNewsFetcher(usecase.FetcherDeps{
		Source:     source,
		Classifier: classifier,
		Seen:       seen,
		Keyword:    cfg.Topic.Keyword,
		MaxLatest:  cfg.Alerts.MaxLatest,
		Logger:     baseLogger.With("component", "fetcher"),
	})

	var sink ports.MessageSink
	var bot *telegram.Bot
	if cfg.Telegram.BotToken != "" {
		client := telegram.NewClient(cfg.Telegram, baseLogger.With("component", "telegram"))
		commands := usecase.NewCommands(usecase.CommandsDeps{
			Fetcher:   fetcher,
			Prefs:     prefs,
			Price:     price,
			Formatter: formatter,
			Metrics:   stats,
			Logger:    baseLogger.With("component", "commands"),
		})
		bot = telegram.NewBot(client, commands, cfg.Telegram.PollTimeout, baseLogger.With("component", "bot"))
		sink = client
	} else {
		baseLogger.Warn("telegram bot token missing, alerts go to the log")
		sink = telegram.NewLogSink(baseLogger.With("component", "sink"))
	}

	cycle := usecase.NewAlertCycle(usecase.CycleDeps{
		Fetcher:    fetcher,
		Dispatcher: usecase.NewDispatcher(prefs, cfg.Alerts.MaxAlertsPerCheck, baseLogger.With("component", "dispatcher")),
		Recipients: prefs,
		Sink:       sink,
		Price:      price,
		Formatter:  formatter,
		Metrics:    stats,
		Location:   cfg.Scheduler.Location(),
		Logger:     baseLogger.With("component", "cycle"),
	})
	sched := usecase.NewScheduler(cycle, baseLogger.With("component", "scheduler"),
		schedulerDrivers(cfg.Scheduler, baseLogger)...)

	server := httpapi.NewServer(cfg.HTTP.Addr, httpapi.Deps{
		Metrics:     stats,
		Scheduler:   sched,
		Subscribers: prefs,
		Seen:        seen,
		Logger:      baseLogger.With("component", "httpapi"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		blob:      blob,
		seen:      seen,
		prefs:     prefs,
		scheduler: sched,
		bot:       bot,
		http:      server,
	}, nil
}

// schedulerDrivers lists drivers in preference order for the configured mode.
func schedulerDrivers(cfg config.SchedulerConfig, logger *slog.Logger) []ports.Scheduler {
	managed := scheduler.NewCronScheduler(cfg.Interval, cfg.InitialDelay, logger.With("component", "scheduler.managed"))
	loop := scheduler.NewLoopScheduler(cfg.Interval, cfg.Cooldown, nil, logger.With("component", "scheduler.loop"))

	switch cfg.Mode {
	case config.ModeManaged:
		return []ports.Scheduler{managed}
	case config.ModeLoop:
		return []ports.Scheduler{loop}
	default:
		return []ports.Scheduler{managed, loop}
	}
}

// Run starts the scheduler, the bot and the health server, and blocks until
// ctx is cancelled. State is flushed before it returns.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		a.shutdown()
		return err
	}
	a.http.Start()

	botDone := make(chan struct{})
	if a.bot != nil {
		go func() {
			defer close(botDone)
			if err := a.bot.Run(ctx); err != nil {
				a.logger.Error("bot stopped", "error", err)
			}
		}()
	} else {
		close(botDone)
	}

	a.logger.Info("news alerter running", "scheduler", a.scheduler.Mode(), "topic", a.cfg.Topic.Name)
	<-ctx.Done()
	a.logger.Info("shutting down")

	<-botDone
	return a.shutdown()
}

func (a *Application) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.scheduler.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.http.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.seen.Save(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush seen articles: %w", err))
	}
	if err := a.prefs.Save(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush preferences: %w", err))
	}
	if err := a.blob.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}
	return errors.Join(errs...)
}
