package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"NewsAlerter/internal/usecase"
)

const pollRetryDelay = 3 * time.Second

// Update is the subset of a bot API update the bot handles.
type Update struct {
	UpdateID      int64          `json:"update_id"`
	Message       *Message       `json:"message,omitempty"`
	CallbackQuery *CallbackQuery `json:"callback_query,omitempty"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text"`
}

// Chat identifies the conversation; its id is the recipient id.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sender of a message or callback.
type User struct {
	ID int64 `json:"id"`
}

// CallbackQuery is an inline button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    User     `json:"from"`
	Message *Message `json:"message,omitempty"`
	Data    string   `json:"data"`
}

// Bot long-polls the bot API and routes commands to the handlers.
type Bot struct {
	client      *Client
	commands    *usecase.Commands
	pollTimeout time.Duration
	logger      *slog.Logger

	wg sync.WaitGroup
}

// NewBot builds the command loop.
func NewBot(client *Client, commands *usecase.Commands, pollTimeout time.Duration, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Bot{client: client, commands: commands, pollTimeout: pollTimeout, logger: logger}
}

// Run polls until ctx is cancelled, then waits for in-flight handlers.
// Updates are handled concurrently.
func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()

	b.logger.Info("telegram bot polling started", "poll_timeout", b.pollTimeout)
	var offset int64
	for {
		updates, err := b.client.GetUpdates(ctx, offset, b.pollTimeout)
		if ctx.Err() != nil {
			b.logger.Info("telegram bot polling stopped")
			return nil
		}
		if err != nil {
			b.logger.Warn("get updates failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			b.wg.Add(1)
			go func(u Update) {
				defer b.wg.Done()
				b.Handle(ctx, u)
			}(u)
		}
	}
}

// Handle processes a single update.
func (b *Bot) Handle(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	command := parseCommand(msg.Text)
	if command == "" {
		return
	}
	chatID := msg.Chat.ID
	b.logger.Debug("command received", "recipient_id", chatID, "command", command)

	switch command {
	case "start":
		b.reply(ctx, chatID, b.commands.Subscribe(ctx, chatID))
	case "stop":
		b.reply(ctx, chatID, b.commands.Unsubscribe(ctx, chatID))
	case "help":
		b.reply(ctx, chatID, b.commands.Help())
	case "preferences":
		b.reply(ctx, chatID, b.commands.Preferences(chatID))
	case "latest":
		b.reply(ctx, chatID, b.commands.LatestNotice())
		for _, r := range b.commands.Latest(ctx, chatID) {
			b.reply(ctx, chatID, r)
		}
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *CallbackQuery) {
	if err := b.client.AnswerCallback(ctx, q.ID); err != nil {
		b.logger.Warn("answer callback failed", "error", err)
	}

	chatID := q.From.ID
	if q.Message != nil {
		chatID = q.Message.Chat.ID
	}

	res := b.commands.HandleCallback(ctx, chatID, q.Data)
	if res.Edit != nil && q.Message != nil {
		if err := b.client.EditMessage(ctx, chatID, q.Message.MessageID, res.Edit.Text, sendOptions(*res.Edit)); err != nil {
			b.logger.Warn("edit message failed", "recipient_id", chatID, "error", err)
		}
	} else if res.Edit != nil {
		b.reply(ctx, chatID, *res.Edit)
	}
	for _, r := range res.Replies {
		b.reply(ctx, chatID, r)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, r usecase.Reply) {
	if err := b.client.SendMessage(ctx, chatID, r.Text, sendOptions(r)); err != nil {
		b.logger.Warn("reply failed", "recipient_id", chatID, "error", err)
	}
}

func sendOptions(r usecase.Reply) SendOptions {
	opts := SendOptions{Markdown: r.Markdown}
	for _, row := range r.Keyboard {
		buttons := make([]InlineButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, InlineButton{Text: btn.Text, CallbackData: btn.Data})
		}
		opts.Keyboard = append(opts.Keyboard, buttons)
	}
	return opts
}

// parseCommand returns the lower-cased command name of "/cmd@bot args", or
// "" for ordinary text.
func parseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	return strings.ToLower(name)
}
