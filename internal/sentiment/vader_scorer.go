package sentiment

import (
	"context"

	"github.com/jonreiter/govader"

	"NewsAlerter/internal/ports"
)

// VaderScorer scores text with the VADER lexicon and rules and reports the
// normalised compound score.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ ports.SentimentScorer = (*VaderScorer)(nil)

// NewVaderScorer loads the lexicon once; the scorer is reused for every call.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score never fails; text with no sentiment-bearing words scores 0.
func (s *VaderScorer) Score(_ context.Context, text string) (float64, error) {
	return s.analyzer.PolarityScores(text).Compound, nil
}
