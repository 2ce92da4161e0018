package usecase

import (
	"context"
	"log/slog"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/ports"
)

// DefaultMaxAlertsPerCheck caps the articles considered per cycle.
const DefaultMaxAlertsPerCheck = 3

// PreferenceReader is the read side of the preference store.
type PreferenceReader interface {
	Get(id int64) domain.Preference
}

// Intent is one planned delivery.
type Intent struct {
	RecipientID int64
	Article     domain.Article
}

// DeliveryReport summarises a Deliver call.
type DeliveryReport struct {
	Sent   int
	Failed int
}

// Dispatcher pairs new articles with interested recipients.
type Dispatcher struct {
	prefs       PreferenceReader
	maxPerCheck int
	logger      *slog.Logger
}

// NewDispatcher builds a dispatcher. maxPerCheck <= 0 uses the default.
func NewDispatcher(prefs PreferenceReader, maxPerCheck int, logger *slog.Logger) *Dispatcher {
	if maxPerCheck <= 0 {
		maxPerCheck = DefaultMaxAlertsPerCheck
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{prefs: prefs, maxPerCheck: maxPerCheck, logger: logger}
}

// Dispatch caps articles to the first maxPerCheck and emits an intent for
// every subscribed recipient whose filter includes the article's category.
// It performs no I/O.
func (d *Dispatcher) Dispatch(articles []domain.Article, recipients []int64) []Intent {
	if len(articles) > d.maxPerCheck {
		articles = articles[:d.maxPerCheck]
	}

	intents := make([]Intent, 0, len(articles)*len(recipients))
	for _, art := range articles {
		for _, id := range recipients {
			pref := d.prefs.Get(id)
			if !pref.Accepts(art.Sentiment.Category) {
				d.logger.Debug("skip alert by preference",
					"recipient_id", id, "sentiment", art.Sentiment.Category, "subscribed", pref.Subscribed)
				continue
			}
			intents = append(intents, Intent{RecipientID: id, Article: art})
		}
	}
	return intents
}

// Deliver sends every intent through sink. A failed send is logged with the
// recipient and does not stop the remaining deliveries.
func (d *Dispatcher) Deliver(ctx context.Context, intents []Intent, sink ports.MessageSink, render func(domain.Article) string) DeliveryReport {
	var report DeliveryReport
	rendered := map[string]string{}

	for _, intent := range intents {
		if ctx.Err() != nil {
			d.logger.Warn("delivery interrupted", "remaining", len(intents)-report.Sent-report.Failed)
			break
		}

		text, ok := rendered[intent.Article.ID]
		if !ok {
			text = render(intent.Article)
			rendered[intent.Article.ID] = text
		}

		if err := sink.Send(ctx, intent.RecipientID, text); err != nil {
			report.Failed++
			d.logger.Warn("alert delivery failed",
				"recipient_id", intent.RecipientID, "url", intent.Article.ID, "error", err)
			continue
		}
		report.Sent++
		d.logger.Info("alert sent",
			"recipient_id", intent.RecipientID, "sentiment", intent.Article.Sentiment.Category)
	}
	return report
}
