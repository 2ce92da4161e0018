package ports

import (
	"context"
	"time"

	"NewsAlerter/internal/domain"
)

// NewsItem is a raw upstream entry before keyword filtering and sentiment.
type NewsItem struct {
	Title         string
	Summary       string
	URL           string
	Source        string
	TimePublished string
	PublishedAt   time.Time
}

// NewsSource pulls the latest items for a topic from the upstream provider.
type NewsSource interface {
	FetchLatest(ctx context.Context) ([]NewsItem, error)
}

// PriceSource returns the market-data quote appended to messages.
type PriceSource interface {
	Quote(ctx context.Context) (*domain.Quote, error)
}

// MessageSink delivers a text message to a single recipient.
type MessageSink interface {
	Send(ctx context.Context, recipientID int64, text string) error
}

// SentimentScorer produces a compound polarity score in [-1, 1].
type SentimentScorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// BlobStore persists opaque values under logical keys.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Job is one scheduled execution. Returning an error marks the run failed.
type Job func(ctx context.Context, trigger time.Time) error

// Scheduler controls when the alert cycle executes.
type Scheduler interface {
	Name() string
	Start(ctx context.Context, job Job) error
	Stop(ctx context.Context) error
}
