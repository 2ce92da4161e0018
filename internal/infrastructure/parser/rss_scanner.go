package parser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/scanner"
)

// RSSScanner reads an RSS or Atom feed as a news source.
type RSSScanner struct {
	client *http.Client
	parser *gofeed.Parser
	logger *slog.Logger
}

// NewRSSScanner wires an HTTP client used to download the feed.
func NewRSSScanner(client *http.Client, logger *slog.Logger) *RSSScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &RSSScanner{client: client, parser: gofeed.NewParser(), logger: logger}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan downloads req.FeedURL and maps its entries. Limit caps the result.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]ports.NewsItem, error) {
	if req.FeedURL == "" {
		return nil, fmt.Errorf("rss scanner: feed url is not configured")
	}

	feed, err := r.fetchFeed(ctx, req.FeedURL)
	if err != nil {
		return nil, err
	}

	items := make([]ports.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		link := strings.TrimSpace(entry.Link)
		if link == "" {
			continue
		}

		summary := entry.Description
		if summary == "" {
			summary = entry.Content
		}

		item := ports.NewsItem{
			Title:         cleanText(entry.Title),
			Summary:       cleanText(summary),
			URL:           link,
			Source:        feedSource(feed, entry),
			TimePublished: entry.Published,
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = entry.UpdatedParsed.UTC()
		}
		items = append(items, item)

		if req.Limit > 0 && len(items) >= req.Limit {
			break
		}
	}

	if r.logger != nil {
		r.logger.Debug("rss feed fetched", "feed", req.FeedURL, "items", len(items))
	}
	return items, nil
}

func (r *RSSScanner) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "NewsAlerter/1.0")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	feed, err := r.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return feed, nil
}

func feedSource(feed *gofeed.Feed, entry *gofeed.Item) string {
	if title := strings.TrimSpace(feed.Title); title != "" {
		return title
	}
	if entry.Author != nil {
		return strings.TrimSpace(entry.Author.Name)
	}
	return ""
}

// cleanText strips markup and collapses whitespace.
func cleanText(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return strings.Join(strings.Fields(raw), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return strings.Join(strings.Fields(raw), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
