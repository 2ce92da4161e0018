package parser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
)

// QuoteClient reads the GLOBAL_QUOTE endpoint for a single symbol.
type QuoteClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	symbol  string
}

var _ ports.PriceSource = (*QuoteClient)(nil)

// NewQuoteClient builds a price source for symbol.
func NewQuoteClient(client *http.Client, baseURL, apiKey, symbol string) *QuoteClient {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = alphaVantageBaseURL
	}
	return &QuoteClient{client: client, baseURL: baseURL, apiKey: apiKey, symbol: symbol}
}

type globalQuoteResponse struct {
	Quote        map[string]string `json:"Global Quote"`
	Note         string            `json:"Note"`
	Information  string            `json:"Information"`
	ErrorMessage string            `json:"Error Message"`
}

// Quote returns the latest price. Missing fields are rendered as N/A; a
// response without a quote block is an error.
func (q *QuoteClient) Quote(ctx context.Context) (*domain.Quote, error) {
	parsed, err := url.Parse(q.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid quote url %s: %w", q.baseURL, err)
	}
	query := parsed.Query()
	query.Set("function", "GLOBAL_QUOTE")
	query.Set("symbol", q.symbol)
	query.Set("apikey", q.apiKey)
	parsed.RawQuery = query.Encode()

	var raw globalQuoteResponse
	if err := getJSON(ctx, q.client, parsed.String(), &raw); err != nil {
		return nil, fmt.Errorf("alphavantage quote: %w", err)
	}
	if len(raw.Quote) == 0 {
		msg := avResponse{Note: raw.Note, Information: raw.Information, ErrorMessage: raw.ErrorMessage}.upstreamMessage()
		if msg == "" {
			msg = "no quote in response"
		}
		return nil, fmt.Errorf("alphavantage quote %s: %s", q.symbol, msg)
	}

	return &domain.Quote{
		Symbol:        q.symbol,
		Price:         field(raw.Quote, "05. price"),
		Change:        field(raw.Quote, "09. change"),
		ChangePercent: field(raw.Quote, "10. change percent"),
	}, nil
}

func field(m map[string]string, key string) string {
	if v := strings.TrimSpace(m[key]); v != "" {
		return v
	}
	return "N/A"
}
