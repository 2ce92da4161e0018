package parser

import (
	"context"
	"fmt"
	"log/slog"

	"NewsAlerter/internal/config"
	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/scanner"
)

// StrategySource implements NewsSource via the configured scanner strategy.
type StrategySource struct {
	registry *scanner.Registry
	cfg      config.NewsConfig
	logger   *slog.Logger
}

var _ ports.NewsSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with the news provider config.
func NewStrategySource(reg *scanner.Registry, cfg config.NewsConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry: reg,
		cfg:      cfg,
		logger:   log,
	}
}

// FetchLatest runs the configured provider once.
func (s *StrategySource) FetchLatest(ctx context.Context) ([]ports.NewsItem, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	provider := s.cfg.Provider
	if provider == "" {
		provider = config.ProviderAlphaVantage
	}

	strategy, err := s.registry.Resolve(provider)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", provider, err)
	}

	s.debug("fetch latest", "provider", provider)
	items, err := strategy.Scan(ctx, scanner.Request{
		Topics:  s.cfg.Topics,
		Sort:    s.cfg.Sort,
		Limit:   s.cfg.Limit,
		FeedURL: s.cfg.FeedURL,
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", provider, err)
	}

	for i := range items {
		if items[i].Source == "" {
			items[i].Source = provider
		}
	}
	s.debug("provider produced items", "provider", provider, "count", len(items))
	return items, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
