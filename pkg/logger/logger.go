package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib logger that forwards to base at error level, tagged
// with the component. It is meant for APIs such as http.Server.ErrorLog.
func New(base *slog.Logger, component string) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelError)
}
