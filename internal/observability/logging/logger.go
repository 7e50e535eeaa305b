package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger builds the logger shared by the worker and the CLI. Output
// goes to stderr: the CLI reserves stdout for its JSON result.
func NewJSONLogger(service, level string) *slog.Logger {
	return NewJSONLoggerTo(os.Stderr, service, level)
}

// NewJSONLoggerTo writes to an explicit destination, for tests and for
// embedding in other sinks.
func NewJSONLoggerTo(w io.Writer, service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

// ParseLevel accepts slog's spellings plus the "warning" alias; anything
// unrecognized falls back to info so a typo in LOG_LEVEL never silences
// the process.
func ParseLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return parsed
}
