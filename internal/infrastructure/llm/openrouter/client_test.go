package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fodder-io/masticator/internal/core/domain"
)

func completionResponse(content string) string {
	return `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":` +
		mustJSON(content) + `}}]}`
}

func mustJSON(s string) string {
	raw, _ := json.Marshal(s)
	return string(raw)
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	var capturedModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedModel, _ = payload["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse(`{"category":"misc"}`)))
	}))
	defer server.Close()

	client := New(Options{
		BaseURL: server.URL + "/v1",
		APIKey:  "key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	})
	got, err := client.Complete(context.Background(), "content", "note.txt")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != `{"category":"misc"}` {
		t.Fatalf("Complete() = %q", got)
	}
	if capturedModel != "test-model" {
		t.Fatalf("model = %q, want test-model", capturedModel)
	}
}

func TestCompleteSendsExtraHeaders(t *testing.T) {
	var referer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		referer = r.Header.Get("HTTP-Referer")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionResponse("ok")))
	}))
	defer server.Close()

	client := New(Options{
		BaseURL:      server.URL + "/v1",
		APIKey:       "key",
		Model:        "m",
		Timeout:      5 * time.Second,
		ExtraHeaders: map[string]string{"HTTP-Referer": "https://example.test"},
	})
	if _, err := client.Complete(context.Background(), "content", "note.txt"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if referer != "https://example.test" {
		t.Fatalf("HTTP-Referer = %q", referer)
	}
}

func TestCompleteEmptyChoicesIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL + "/v1", APIKey: "key", Model: "m", Timeout: 5 * time.Second})
	_, err := client.Complete(context.Background(), "content", "note.txt")
	if err == nil {
		t.Fatalf("expected error for empty choices")
	}
	if !domain.IsKind(err, domain.ErrLLMCall) {
		t.Fatalf("expected ErrLLMCall, got %v", err)
	}
}

func TestCompleteServerErrorIsWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(Options{BaseURL: server.URL + "/v1", APIKey: "key", Model: "m", Timeout: 5 * time.Second})
	_, err := client.Complete(context.Background(), "content", "note.txt")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrLLMCall) {
		t.Fatalf("expected ErrLLMCall, got %v", err)
	}
}
