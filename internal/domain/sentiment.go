package domain

import "fmt"

// Category enumerates sentiment buckets.
type Category string

const (
	Positive Category = "positive"
	Neutral  Category = "neutral"
	Negative Category = "negative"
)

// Thresholds on the compound score. Both boundaries are inclusive.
const (
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05
)

// AllCategories lists every category in display order.
func AllCategories() []Category {
	return []Category{Positive, Neutral, Negative}
}

// ParseCategory validates a raw category name.
func ParseCategory(raw string) (Category, error) {
	switch Category(raw) {
	case Positive, Neutral, Negative:
		return Category(raw), nil
	default:
		return "", fmt.Errorf("unknown sentiment category %q", raw)
	}
}

// Sentiment is the classification attached to an article.
type Sentiment struct {
	Category Category
	Score    float64
}

// CategoryFor maps a compound score to its category.
func CategoryFor(score float64) Category {
	switch {
	case score >= PositiveThreshold:
		return Positive
	case score <= NegativeThreshold:
		return Negative
	default:
		return Neutral
	}
}

// NewSentiment clamps the score to [-1, 1] and derives the category from it.
func NewSentiment(score float64) Sentiment {
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}
	return Sentiment{Category: CategoryFor(score), Score: score}
}

// NeutralSentiment is the fallback for empty text or classifier failures.
func NeutralSentiment() Sentiment {
	return Sentiment{Category: Neutral, Score: 0}
}
