package domain

import "time"

// Article is a topic-matching news item fetched from the upstream provider.
// ID is the canonical URL and doubles as the dedup key.
type Article struct {
	ID          string
	Title       string
	Summary     string
	Source      string
	PublishedAt time.Time
	// RawPublished keeps the provider's original timestamp string for display
	// when it could not be parsed.
	RawPublished string
	Sentiment    Sentiment
}

// URL returns the article link.
func (a Article) URL() string {
	return a.ID
}

// ClassifiableText is the text sentiment is derived from: the summary when
// present, the title otherwise.
func (a Article) ClassifiableText() string {
	if a.Summary != "" {
		return a.Summary
	}
	return a.Title
}

// SeenArticle is a previously alerted article kept in the dedup log.
type SeenArticle struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Quote is the market-data line appended to outgoing messages.
type Quote struct {
	Symbol        string
	Price         string
	Change        string
	ChangePercent string
}
