package telegram

import (
	"context"
	"log/slog"

	"NewsAlerter/internal/ports"
)

// LogSink writes alerts to the log. It stands in for the bot when no token
// is configured.
type LogSink struct {
	logger *slog.Logger
}

var _ ports.MessageSink = LogSink{}

// NewLogSink returns a sink backed by logger.
func NewLogSink(logger *slog.Logger) LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return LogSink{logger: logger}
}

// Send logs the message.
func (s LogSink) Send(_ context.Context, recipientID int64, text string) error {
	s.logger.Info("alert (no bot token configured)", "recipient_id", recipientID, "text", text)
	return nil
}
