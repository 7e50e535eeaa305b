package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" réponse "}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "secret", "test-model", "")
	out, err := client.Complete(context.Background(), "système", "utilisateur")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "réponse" {
		t.Fatalf("out = %q", out)
	}
	if captured.Model != "test-model" || len(captured.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", captured)
	}
	if captured.Messages[0].Role != "system" || captured.Messages[1].Role != "user" {
		t.Fatalf("unexpected roles: %+v", captured.Messages)
	}
}

func TestCompleteVisionInlinesImage(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "doc.png")
	if err := os.WriteFile(imagePath, []byte{0x89, 0x50, 0x4E, 0x47}, 0o644); err != nil {
		t.Fatal(err)
	}

	var rawBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&rawBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{}"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "text-model", "vision-model")
	if _, err := client.CompleteVision(context.Background(), imagePath, "lis ce document"); err != nil {
		t.Fatalf("CompleteVision() error = %v", err)
	}
	if rawBody["model"] != "vision-model" {
		t.Fatalf("model = %v", rawBody["model"])
	}
	encoded, _ := json.Marshal(rawBody)
	if !strings.Contains(string(encoded), "data:image/png;base64,") {
		t.Fatalf("expected inlined data URL in request: %s", encoded)
	}
}

func TestCompleteStatusErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "", "m", "")
	_, err := client.Complete(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable || !strings.Contains(statusErr.Body, "model overloaded") {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "", "m", "")
	if _, err := client.Complete(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
