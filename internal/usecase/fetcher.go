package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/sentiment"
	"NewsAlerter/internal/store"
)

// DefaultMaxLatest caps on-demand results.
const DefaultMaxLatest = 5

// FetcherDeps wires the news source, classifier and dedup log.
type FetcherDeps struct {
	Source     ports.NewsSource
	Classifier *sentiment.Classifier
	Seen       *store.ArticleStore
	Keyword    string
	MaxLatest  int
	Logger     *slog.Logger
}

// FetchStats describes the last alert-mode fetch.
type FetchStats struct {
	Matched    int
	Duplicates int
	Fresh      int
}

// NewsFetcher turns upstream items into classified topic articles.
type NewsFetcher struct {
	source     ports.NewsSource
	classifier *sentiment.Classifier
	seen       *store.ArticleStore
	matcher    KeywordMatcher
	maxLatest  int
	logger     *slog.Logger
}

// NewNewsFetcher constructs the fetcher.
func NewNewsFetcher(deps FetcherDeps) *NewsFetcher {
	if deps.Classifier == nil {
		deps.Classifier = sentiment.NewClassifier(nil, deps.Logger)
	}
	if deps.MaxLatest <= 0 {
		deps.MaxLatest = DefaultMaxLatest
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &NewsFetcher{
		source:     deps.Source,
		classifier: deps.Classifier,
		seen:       deps.Seen,
		matcher:    NewKeywordMatcher(deps.Keyword),
		maxLatest:  deps.MaxLatest,
		logger:     deps.Logger,
	}
}

// Fetch queries the source once. With forAlerts it drops already alerted
// articles and records the survivors; otherwise it returns at most MaxLatest
// articles and never touches the dedup log. On upstream failure it returns
// an empty result together with the error.
func (f *NewsFetcher) Fetch(ctx context.Context, forAlerts bool) ([]domain.Article, error) {
	articles, _, err := f.fetch(ctx, forAlerts)
	return articles, err
}

// FetchForAlerts is Fetch(ctx, true) with counters for reporting.
func (f *NewsFetcher) FetchForAlerts(ctx context.Context) ([]domain.Article, FetchStats, error) {
	return f.fetch(ctx, true)
}

func (f *NewsFetcher) fetch(ctx context.Context, forAlerts bool) ([]domain.Article, FetchStats, error) {
	var stats FetchStats
	if f.source == nil {
		return []domain.Article{}, stats, fmt.Errorf("news source is not configured")
	}

	items, err := f.source.FetchLatest(ctx)
	if err != nil {
		f.logger.Error("fetch news", "for_alerts", forAlerts, "error", err)
		return []domain.Article{}, stats, fmt.Errorf("fetch news: %w", err)
	}

	matched := f.match(items)
	stats.Matched = len(matched)

	if !forAlerts {
		if len(matched) > f.maxLatest {
			matched = matched[:f.maxLatest]
		}
		return f.classify(ctx, matched), stats, nil
	}

	fresh := make([]ports.NewsItem, 0, len(matched))
	for _, item := range matched {
		if f.seen != nil && f.seen.Contains(item.URL) {
			stats.Duplicates++
			continue
		}
		fresh = append(fresh, item)
	}
	articles := f.classify(ctx, fresh)
	stats.Fresh = len(articles)

	if f.seen != nil && len(articles) > 0 {
		if err := f.seen.RecordAll(ctx, articles); err != nil {
			f.logger.Warn("seen log not persisted", "error", err)
		}
	}

	f.logger.Info("alert fetch done", "matched", stats.Matched, "duplicates", stats.Duplicates, "fresh", stats.Fresh)
	return articles, stats, nil
}

// match keeps keyword hits with a usable URL, first occurrence wins.
func (f *NewsFetcher) match(items []ports.NewsItem) []ports.NewsItem {
	out := make([]ports.NewsItem, 0, len(items))
	seen := map[string]struct{}{}
	for _, item := range items {
		url := strings.TrimSpace(item.URL)
		if url == "" {
			continue
		}
		if !f.matcher.Match(item.Title, item.Summary) {
			continue
		}
		if _, ok := seen[url]; ok {
			continue
		}
		seen[url] = struct{}{}
		item.URL = url
		out = append(out, item)
	}
	return out
}

func (f *NewsFetcher) classify(ctx context.Context, items []ports.NewsItem) []domain.Article {
	articles := make([]domain.Article, 0, len(items))
	for _, item := range items {
		art := domain.Article{
			ID:           item.URL,
			Title:        item.Title,
			Summary:      item.Summary,
			Source:       item.Source,
			PublishedAt:  item.PublishedAt,
			RawPublished: item.TimePublished,
		}
		art.Sentiment = f.classifier.Classify(ctx, art.ClassifiableText())
		articles = append(articles, art)
	}
	return articles
}
