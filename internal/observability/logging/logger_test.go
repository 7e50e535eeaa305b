package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewJSONLoggerToCarriesService(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "docpilot-worker", "info")
	logger.Info("hello", "document_id", "doc-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if entry["service"] != "docpilot-worker" {
		t.Fatalf("service = %v", entry["service"])
	}
	if entry["document_id"] != "doc-1" {
		t.Fatalf("document_id = %v", entry["document_id"])
	}
}

func TestNewJSONLoggerToFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLoggerTo(&buf, "docpilot", "error")
	logger.Info("dropped")
	logger.Error("kept")

	if !bytes.Contains(buf.Bytes(), []byte("kept")) || bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Fatalf("level filter wrong:\n%s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
