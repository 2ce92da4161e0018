package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"error":    slog.LevelError,
		" WARN ":   slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"info":     slog.LevelInfo,
		"debug":    slog.LevelDebug,
		"anything": slog.LevelDebug,
	}
	for in, want := range cases {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWriterJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWriter(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("alert sent", "recipient_id", int64(7))

	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", line, err)
	}
	if entry["msg"] != "alert sent" || entry["recipient_id"].(float64) != 7 {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestNewWriterText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWriter(&buf, "warn", "").Warn("cooling down", "cooldown", "1m0s")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "cooldown=1m0s") {
		t.Fatalf("unexpected text output %q", out)
	}
}
