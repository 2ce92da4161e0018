package usecase

import (
	"strings"

	"golang.org/x/text/cases"
)

// KeywordMatcher is a case-insensitive plain substring match. It is not
// word-boundary aware: "trump" matches "Trumpet".
type KeywordMatcher struct {
	folded string
}

// NewKeywordMatcher folds the keyword once.
func NewKeywordMatcher(keyword string) KeywordMatcher {
	return KeywordMatcher{folded: fold(strings.TrimSpace(keyword))}
}

// Match reports whether any of the texts contains the keyword.
func (m KeywordMatcher) Match(texts ...string) bool {
	if m.folded == "" {
		return false
	}
	for _, text := range texts {
		if text != "" && strings.Contains(fold(text), m.folded) {
			return true
		}
	}
	return false
}

// cases.Caser is stateful, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
