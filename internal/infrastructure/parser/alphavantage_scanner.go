package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/scanner"
)

const (
	alphaVantageBaseURL  = "https://www.alphavantage.co/query"
	alphaVantageTimeForm = "20060102T150405"
)

// AlphaVantageScanner queries the NEWS_SENTIMENT endpoint.
type AlphaVantageScanner struct {
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewAlphaVantageScanner wires an HTTP client; baseURL defaults to the public API.
func NewAlphaVantageScanner(client *http.Client, baseURL, apiKey string, logger *slog.Logger) *AlphaVantageScanner {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = alphaVantageBaseURL
	}
	return &AlphaVantageScanner{client: client, baseURL: baseURL, apiKey: apiKey, logger: logger}
}

// Name identifies the strategy inside the registry.
func (a *AlphaVantageScanner) Name() string {
	return "alphavantage"
}

type avResponse struct {
	Feed         []avFeedItem `json:"feed"`
	Information  string       `json:"Information"`
	Note         string       `json:"Note"`
	ErrorMessage string       `json:"Error Message"`
}

type avFeedItem struct {
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	URL           string `json:"url"`
	Source        string `json:"source"`
	TimePublished string `json:"time_published"`
}

// Scan fetches the latest feed. Entries without a URL are dropped since the
// URL is their identity.
func (a *AlphaVantageScanner) Scan(ctx context.Context, req scanner.Request) ([]ports.NewsItem, error) {
	endpoint, err := buildNewsURL(a.baseURL, a.apiKey, req)
	if err != nil {
		return nil, err
	}

	var raw avResponse
	if err := getJSON(ctx, a.client, endpoint, &raw); err != nil {
		return nil, fmt.Errorf("alphavantage news: %w", err)
	}
	if raw.Feed == nil {
		if msg := raw.upstreamMessage(); msg != "" {
			return nil, fmt.Errorf("alphavantage news: %s", msg)
		}
	}

	items := make([]ports.NewsItem, 0, len(raw.Feed))
	for _, entry := range raw.Feed {
		link := strings.TrimSpace(entry.URL)
		if link == "" {
			a.debug("skip feed entry without url", "title", entry.Title)
			continue
		}

		item := ports.NewsItem{
			Title:         strings.TrimSpace(entry.Title),
			Summary:       cleanText(entry.Summary),
			URL:           link,
			Source:        strings.TrimSpace(entry.Source),
			TimePublished: entry.TimePublished,
		}
		if published, err := time.Parse(alphaVantageTimeForm, entry.TimePublished); err == nil {
			item.PublishedAt = published
		}
		items = append(items, item)
	}

	a.debug("alphavantage feed fetched", "entries", len(raw.Feed), "kept", len(items))
	return items, nil
}

func (r avResponse) upstreamMessage() string {
	switch {
	case r.ErrorMessage != "":
		return r.ErrorMessage
	case r.Note != "":
		return r.Note
	case r.Information != "":
		return r.Information
	}
	return ""
}

func buildNewsURL(base, apiKey string, req scanner.Request) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid news url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("function", "NEWS_SENTIMENT")
	if req.Topics != "" {
		query.Set("topics", req.Topics)
	}
	if req.Sort != "" {
		query.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		query.Set("limit", strconv.Itoa(req.Limit))
	}
	for k, v := range req.Options {
		query.Set(k, v)
	}
	query.Set("apikey", apiKey)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "NewsAlerter/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func (a *AlphaVantageScanner) debug(msg string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
