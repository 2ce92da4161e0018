package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"NewsAlerter/internal/config"
	"NewsAlerter/internal/ports"
)

const requestTimeout = 15 * time.Second

// InlineButton is a callback button attached to a message.
type InlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

// SendOptions controls message formatting.
type SendOptions struct {
	Markdown bool
	Keyboard [][]InlineButton
}

// APIError is a non-ok bot API response.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Client talks to the Telegram bot API. Outgoing messages share one limiter.
type Client struct {
	apiBase string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.MessageSink = (*Client)(nil)

// NewClient registers the bot token and throttling settings.
func NewClient(cfg config.TelegramConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		apiBase: apiBase,
		token:   cfg.BotToken,
		client:  &http.Client{},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Send posts a Markdown message to a chat.
func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	return c.SendMessage(ctx, chatID, text, SendOptions{Markdown: true})
}

// SendMessage posts a message. A Markdown message Telegram refuses to parse
// is retried once as plain text.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts SendOptions) error {
	payload := messagePayload(text, opts)
	payload["chat_id"] = chatID

	err := c.throttled(ctx, "sendMessage", payload)
	if opts.Markdown && isParseError(err) {
		c.logger.Warn("markdown rejected, resending as plain text", "chat_id", chatID, "error", err)
		delete(payload, "parse_mode")
		err = c.throttled(ctx, "sendMessage", payload)
	}
	return err
}

// EditMessage replaces the text and keyboard of an earlier message.
func (c *Client) EditMessage(ctx context.Context, chatID, messageID int64, text string, opts SendOptions) error {
	payload := messagePayload(text, opts)
	payload["chat_id"] = chatID
	payload["message_id"] = messageID

	err := c.throttled(ctx, "editMessageText", payload)
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.Description, "message is not modified") {
		return nil
	}
	return err
}

// AnswerCallback acknowledges a button press.
func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	return c.call(ctx, "answerCallbackQuery", map[string]any{"callback_query_id": callbackID}, nil, requestTimeout)
}

// GetUpdates long-polls for updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates, timeout+requestTimeout); err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) throttled(ctx context.Context, method string, payload map[string]any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	return c.call(ctx, method, payload, nil, requestTimeout)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, payload any, result any, timeout time.Duration) error {
	if c.token == "" {
		return fmt.Errorf("telegram client misconfigured: empty bot token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.apiBase, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("telegram %s: %s: decode: %w", method, resp.Status, err)
	}
	if !decoded.OK {
		code := decoded.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return &APIError{Method: method, Code: code, Description: decoded.Description}
	}
	if result != nil && len(decoded.Result) > 0 {
		if err := json.Unmarshal(decoded.Result, result); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

func messagePayload(text string, opts SendOptions) map[string]any {
	payload := map[string]any{
		"text":                     text,
		"disable_web_page_preview": false,
	}
	if opts.Markdown {
		payload["parse_mode"] = "Markdown"
	}
	if len(opts.Keyboard) > 0 {
		payload["reply_markup"] = map[string]any{"inline_keyboard": opts.Keyboard}
	}
	return payload
}

func isParseError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest &&
		strings.Contains(apiErr.Description, "can't parse entities")
}
