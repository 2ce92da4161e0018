package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"NewsAlerter/internal/domain"
	"NewsAlerter/internal/metrics"
	"NewsAlerter/internal/ports"
	"NewsAlerter/internal/store"
)

// Callback payloads carried by inline buttons.
const (
	CallbackTogglePositive = "toggle_positive"
	CallbackToggleNeutral  = "toggle_neutral"
	CallbackToggleNegative = "toggle_negative"
	CallbackSelectAll      = "select_all"
	CallbackShowFilters    = "set_sentiment_filters"
)

// Button is an inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Reply is one outgoing chat message.
type Reply struct {
	Text     string
	Markdown bool
	Keyboard [][]Button
}

// CallbackResult tells the transport how to answer a button press. Edit, when
// set, replaces the message the button belongs to.
type CallbackResult struct {
	Edit    *Reply
	Replies []Reply
}

// PreferenceManager is the subset of the preference store commands use.
type PreferenceManager interface {
	Get(id int64) domain.Preference
	SetSubscribed(ctx context.Context, id int64, subscribed bool) store.Update
	ToggleCategory(ctx context.Context, id int64, cat domain.Category) store.Update
	SetAllCategories(ctx context.Context, id int64) store.Update
}

// CommandsDeps wires the inbound command handlers.
type CommandsDeps struct {
	Fetcher   *NewsFetcher
	Prefs     PreferenceManager
	Price     ports.PriceSource
	Formatter Formatter
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Commands implements the chat commands for a single recipient at a time.
type Commands struct {
	fetcher   *NewsFetcher
	prefs     PreferenceManager
	price     ports.PriceSource
	formatter Formatter
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewCommands constructs the handlers.
func NewCommands(deps CommandsDeps) *Commands {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	return &Commands{
		fetcher:   deps.Fetcher,
		prefs:     deps.Prefs,
		price:     deps.Price,
		formatter: deps.Formatter,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

func (c *Commands) topic() string {
	if c.formatter.Topic == "" {
		return "Topic"
	}
	return c.formatter.Topic
}

// Subscribe handles /start. Repeating it keeps the recipient subscribed once.
func (c *Commands) Subscribe(ctx context.Context, id int64) Reply {
	c.prefs.SetSubscribed(ctx, id, true)
	c.logger.Info("recipient subscribed", "recipient_id", id)

	topic := c.topic()
	return Reply{
		Text: fmt.Sprintf("👋 Welcome to the %s News Alert Bot with Sentiment Analysis!\n\n"+
			"You are now subscribed to %s news alerts. You'll receive notifications when significant news about %s is published.\n\n"+
			"Each news article is analyzed for sentiment (positive, neutral, or negative).\n\n"+
			"Commands:\n"+
			"/stop - Unsubscribe from alerts\n"+
			"/latest - Get the latest %s news\n"+
			"/preferences - Set your sentiment preferences\n"+
			"/help - Show available commands", topic, topic, topic, topic),
		Keyboard: [][]Button{{{Text: "Set Sentiment Filters", Data: CallbackShowFilters}}},
	}
}

// Unsubscribe handles /stop. The preference record is kept.
func (c *Commands) Unsubscribe(ctx context.Context, id int64) Reply {
	c.prefs.SetSubscribed(ctx, id, false)
	c.logger.Info("recipient unsubscribed", "recipient_id", id)
	return Reply{Text: fmt.Sprintf("You've unsubscribed from %s news alerts. Send /start to subscribe again.", c.topic())}
}

// Help lists the available commands.
func (c *Commands) Help() Reply {
	topic := c.topic()
	return Reply{Text: fmt.Sprintf("📰 %s News Alert Bot Commands:\n\n"+
		"/start - Subscribe to %s news alerts\n"+
		"/stop - Unsubscribe from alerts\n"+
		"/latest - Get the latest %s news\n"+
		"/preferences - Set your sentiment preferences\n"+
		"/help - Show this help message\n\n"+
		"Sentiment Indicators:\n"+
		"🟢 - Positive news\n"+
		"⚪ - Neutral news\n"+
		"🔴 - Negative news", topic, topic, topic)}
}

// LatestNotice is sent before the on-demand fetch starts.
func (c *Commands) LatestNotice() Reply {
	return Reply{Text: fmt.Sprintf("Fetching the latest %s news... ⏳", c.topic())}
}

// Latest runs an on-demand fetch filtered by the caller's sentiment filter.
// It never touches the dedup log.
func (c *Commands) Latest(ctx context.Context, id int64) []Reply {
	c.metrics.IncrementOnDemand()
	pref := c.prefs.Get(id)

	articles, err := c.fetcher.Fetch(ctx, false)
	if err != nil {
		c.logger.Warn("on-demand fetch failed", "recipient_id", id, "error", err)
	}
	if len(articles) == 0 {
		return []Reply{{Text: fmt.Sprintf("No recent %s news found. Try again later.", c.topic())}}
	}

	filtered := make([]domain.Article, 0, len(articles))
	for _, art := range articles {
		if pref.Wants(art.Sentiment.Category) {
			filtered = append(filtered, art)
		}
	}

	if len(filtered) == 0 {
		return []Reply{{Text: fmt.Sprintf("Found %d articles, but none match your sentiment preferences. "+
			"Available sentiments in recent news: %s.\n"+
			"Use /preferences to adjust your settings.", len(articles), availableSentiments(articles))}}
	}

	quote := fetchQuote(ctx, c.price, c.logger)
	replies := make([]Reply, 0, len(filtered))
	for _, art := range filtered {
		replies = append(replies, Reply{Text: c.formatter.Article(art, quote, false), Markdown: true})
	}
	return replies
}

// Preferences shows the recipient's filter with toggle buttons.
func (c *Commands) Preferences(id int64) Reply {
	return preferencesReply(c.prefs.Get(id))
}

// Toggle flips one category. When that would leave the filter empty it is
// reset to all categories and the second result is true.
func (c *Commands) Toggle(ctx context.Context, id int64, cat domain.Category) (Reply, bool) {
	upd := c.prefs.ToggleCategory(ctx, id, cat)
	return preferencesReply(upd.Preference), upd.FilterReset
}

// SelectAll enables every category.
func (c *Commands) SelectAll(ctx context.Context, id int64) Reply {
	upd := c.prefs.SetAllCategories(ctx, id)
	return preferencesReply(upd.Preference)
}

// HandleCallback routes an inline button payload.
func (c *Commands) HandleCallback(ctx context.Context, id int64, data string) CallbackResult {
	switch data {
	case CallbackShowFilters:
		return CallbackResult{Replies: []Reply{c.Preferences(id)}}
	case CallbackSelectAll:
		edit := c.SelectAll(ctx, id)
		return CallbackResult{Edit: &edit}
	}

	raw, ok := strings.CutPrefix(data, "toggle_")
	if !ok {
		c.logger.Warn("unknown callback", "recipient_id", id, "data", data)
		return CallbackResult{}
	}
	cat, err := domain.ParseCategory(raw)
	if err != nil {
		c.logger.Warn("unknown callback category", "recipient_id", id, "data", data)
		return CallbackResult{}
	}

	edit, reset := c.Toggle(ctx, id, cat)
	result := CallbackResult{Edit: &edit}
	if reset {
		result.Replies = []Reply{{Text: "⚠️ You must select at least one sentiment type. Resetting to all types."}}
	}
	return result
}

func preferencesReply(p domain.Preference) Reply {
	var b strings.Builder
	b.WriteString("📊 Your News Preferences\n\n")
	for _, cat := range domain.AllCategories() {
		state := "Disabled ❌"
		if p.Wants(cat) {
			state = "Enabled ✅"
		}
		fmt.Fprintf(&b, "%s %s news: %s\n", sentimentIcon(cat), titleCase(string(cat)), state)
	}
	b.WriteString("\nClick below to toggle your preferences:")

	return Reply{Text: b.String(), Keyboard: preferencesKeyboard()}
}

func preferencesKeyboard() [][]Button {
	return [][]Button{
		{
			{Text: "Positive News 🟢", Data: CallbackTogglePositive},
			{Text: "Neutral News ⚪", Data: CallbackToggleNeutral},
		},
		{
			{Text: "Negative News 🔴", Data: CallbackToggleNegative},
			{Text: "All News", Data: CallbackSelectAll},
		},
	}
}

// availableSentiments lists the distinct categories present, in display order.
func availableSentiments(articles []domain.Article) string {
	present := map[domain.Category]bool{}
	for _, a := range articles {
		present[a.Sentiment.Category] = true
	}
	names := make([]string, 0, len(present))
	for _, cat := range domain.AllCategories() {
		if present[cat] {
			names = append(names, string(cat))
		}
	}
	return strings.Join(names, ", ")
}
