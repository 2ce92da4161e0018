package usecase

import (
	"fmt"
	"strings"

	"NewsAlerter/internal/domain"
)

const publishedLayout = "January 02, 2006 at 15:04"

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// Formatter renders articles as Telegram Markdown messages.
type Formatter struct {
	Topic       string
	PriceSymbol string
}

// Article renders one article. alert adds the topic header; quote may be nil,
// in which case a placeholder is shown when a symbol is configured.
func (f Formatter) Article(a domain.Article, quote *domain.Quote, alert bool) string {
	var b strings.Builder

	if alert {
		fmt.Fprintf(&b, "🚨 *%s NEWS ALERT*\n\n", strings.ToUpper(escapeMarkdown(f.Topic)))
	}

	fmt.Fprintf(&b, "📰 *%s*\n\n", escapeMarkdown(a.Title))

	if a.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", escapeMarkdown(a.Summary))
	}

	fmt.Fprintf(&b, "Sentiment: %s %s (%.2f)\n", sentimentIcon(a.Sentiment.Category),
		titleCase(string(a.Sentiment.Category)), a.Sentiment.Score)

	if a.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", escapeMarkdown(a.Source))
	}

	if published := publishedText(a); published != "" {
		fmt.Fprintf(&b, "Published: %s\n", escapeMarkdown(published))
	}

	fmt.Fprintf(&b, "\n[Read full article](%s)", a.URL())

	b.WriteString(f.Quote(quote))
	return b.String()
}

// Quote renders the market-data block, or nothing when no symbol is set.
func (f Formatter) Quote(q *domain.Quote) string {
	if f.PriceSymbol == "" {
		return ""
	}
	header := fmt.Sprintf("\n\n📈 *%s Tracker*\n", escapeMarkdown(f.PriceSymbol))
	if q == nil {
		return header + fmt.Sprintf("Unable to fetch %s data at the moment.\n", escapeMarkdown(f.PriceSymbol))
	}
	return header + fmt.Sprintf("Price: $%s\nChange: %s (%s)\n", q.Price, q.Change, q.ChangePercent)
}

func publishedText(a domain.Article) string {
	if !a.PublishedAt.IsZero() {
		return a.PublishedAt.Format(publishedLayout)
	}
	return strings.TrimSpace(a.RawPublished)
}

func sentimentIcon(c domain.Category) string {
	switch c {
	case domain.Positive:
		return "🟢"
	case domain.Negative:
		return "🔴"
	default:
		return "⚪"
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
