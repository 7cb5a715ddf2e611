// Package telemetry wires process-wide structured logging. Log lines go to
// a JSONL file under the home directory and, unless quiet, to stderr so
// streamed agent output keeps stdout to itself.
package telemetry

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/basket/routines/internal/shared"
)

// NewLogger opens <homeDir>/logs/system.jsonl for appending and returns a
// JSON logger writing there. The returned closer owns the file handle.
func NewLogger(homeDir, level string, quiet bool) (*slog.Logger, io.Closer, error) {
	logDir := filepath.Join(homeDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}

	file, err := os.OpenFile(filepath.Join(logDir, "system.jsonl"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	var w io.Writer = file
	if !quiet {
		w = io.MultiWriter(os.Stderr, file)
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(level),
		ReplaceAttr: redactAttr,
	})
	logger := slog.New(handler).With("component", "routines")
	return logger, file, nil
}

// redactAttr renames the time key and scrubs credentials before any
// attribute reaches the log file.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		a.Key = "timestamp"
	}
	if shared.SensitiveKey(a.Key) {
		return slog.String(a.Key, "[REDACTED]")
	}
	if a.Value.Kind() == slog.KindString {
		if clean, changed := scrubValue(a.Value.String()); changed {
			return slog.String(a.Key, clean)
		}
	}
	return a
}

// scrubValue reports whether v carried secret material and returns the
// cleaned form. Values that embed auth headers are dropped whole; URLs
// with userinfo keep their shape with the password masked.
func scrubValue(v string) (string, bool) {
	lower := strings.ToLower(v)
	for _, marker := range []string{"bearer ", "api_key", "authorization:"} {
		if strings.Contains(lower, marker) {
			return "[REDACTED]", true
		}
	}
	if clean := shared.Redact(v); clean != v {
		return clean, true
	}
	return v, false
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
