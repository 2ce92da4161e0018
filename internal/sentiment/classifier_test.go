package sentiment

import (
	"context"
	"errors"
	"testing"

	"NewsAlerter/internal/domain"
)

type fixedScorer struct {
	score float64
	err   error
}

func (f fixedScorer) Score(context.Context, string) (float64, error) {
	return f.score, f.err
}

func TestClassifyEmptyText(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, nil)
	for _, text := range []string{"", "   ", "\n\t"} {
		got := c.Classify(context.Background(), text)
		if got != domain.NeutralSentiment() {
			t.Fatalf("Classify(%q) = %+v, want neutral/0", text, got)
		}
	}
}

func TestClassifyScorerFailureFallsBackToNeutral(t *testing.T) {
	t.Parallel()

	c := NewClassifier(fixedScorer{score: 0.9, err: errors.New("backend down")}, nil)
	got := c.Classify(context.Background(), "anything at all")
	if got.Category != domain.Neutral || got.Score != 0 {
		t.Fatalf("expected neutral fallback, got %+v", got)
	}
}

func TestClassifyThresholdBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score float64
		want  domain.Category
	}{
		{0.05, domain.Positive},
		{-0.05, domain.Negative},
		{0.0, domain.Neutral},
		{0.0499, domain.Neutral},
		{-0.0499, domain.Neutral},
		{0.8, domain.Positive},
		{-0.8, domain.Negative},
	}

	for _, tc := range cases {
		c := NewClassifier(fixedScorer{score: tc.score}, nil)
		got := c.Classify(context.Background(), "text")
		if got.Category != tc.want {
			t.Fatalf("score %v: got %s, want %s", tc.score, got.Category, tc.want)
		}
		if got.Score != tc.score {
			t.Fatalf("score %v: classifier altered score to %v", tc.score, got.Score)
		}
	}
}

func TestClassifyClampsOutOfRangeScores(t *testing.T) {
	t.Parallel()

	c := NewClassifier(fixedScorer{score: 3}, nil)
	got := c.Classify(context.Background(), "text")
	if got.Score != 1 || got.Category != domain.Positive {
		t.Fatalf("expected clamped positive, got %+v", got)
	}
}

func TestVaderScorer(t *testing.T) {
	t.Parallel()

	c := NewClassifier(nil, nil)
	ctx := context.Background()

	cases := []struct {
		text string
		want domain.Category
	}{
		{"Markets rally as investors celebrate strong growth", domain.Positive},
		{"War and crisis deepen fears of disaster", domain.Negative},
		{"This is not good", domain.Negative},
		{"Trump slams judge as corrupt and disgraceful", domain.Negative},
		{"Trump is furious and humiliated", domain.Negative},
		{"The committee meets on Tuesday", domain.Neutral},
	}

	for _, tc := range cases {
		got := c.Classify(ctx, tc.text)
		if got.Category != tc.want {
			t.Fatalf("Classify(%q) = %+v, want %s", tc.text, got, tc.want)
		}
		if got.Category != domain.CategoryFor(got.Score) {
			t.Fatalf("category %s inconsistent with score %v", got.Category, got.Score)
		}
	}
}

func TestVaderScorerIsDeterministic(t *testing.T) {
	t.Parallel()

	scorer := NewVaderScorer()
	text := "Very strong gains, but serious concerns about a looming recession!"
	first, _ := scorer.Score(context.Background(), text)
	for i := 0; i < 5; i++ {
		again, _ := scorer.Score(context.Background(), text)
		if again != first {
			t.Fatalf("score changed between runs: %v vs %v", first, again)
		}
	}
	if first < -1 || first > 1 {
		t.Fatalf("score out of range: %v", first)
	}
}

func TestIntensifierStrengthensScore(t *testing.T) {
	t.Parallel()

	scorer := NewVaderScorer()
	plain, _ := scorer.Score(context.Background(), "a good result")
	boosted, _ := scorer.Score(context.Background(), "a very good result")
	if boosted <= plain {
		t.Fatalf("expected intensifier to raise score: plain=%v boosted=%v", plain, boosted)
	}
}
