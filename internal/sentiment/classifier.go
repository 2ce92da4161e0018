// Package sentiment turns article text into a categorised polarity score.
package sentiment

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
)

// Classifier wraps a scorer and guarantees a result for every input.
type Classifier struct {
	scorer ports.SentimentScorer
	logger *slog.Logger
}

// NewClassifier falls back to the VADER scorer when scorer is nil.
func NewClassifier(scorer ports.SentimentScorer, logger *slog.Logger) *Classifier {
	if scorer == nil {
		scorer = NewVaderScorer()
	}
	return &Classifier{scorer: scorer, logger: logger}
}

// Classify scores text. Empty text and scorer failures yield neutral/0.
func (c *Classifier) Classify(ctx context.Context, text string) domain.Sentiment {
	if strings.TrimSpace(text) == "" {
		return domain.NeutralSentiment()
	}

	score, err := c.scorer.Score(ctx, text)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("sentiment scorer failed, using neutral", "error", err)
		}
		return domain.NeutralSentiment()
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return domain.NeutralSentiment()
	}

	return domain.NewSentiment(score)
}
