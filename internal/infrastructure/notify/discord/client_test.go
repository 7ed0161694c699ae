package discord

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fodder-io/masticator/internal/core/domain"
	"github.com/fodder-io/masticator/internal/observability/logging"
)

func TestMessageIDFromFilename(t *testing.T) {
	cases := []struct {
		filename string
		want     string
		ok       bool
	}{
		{"1416104732573437962.txt", "1416104732573437962", true},
		{"/fodder/1416104732573437962.md", "1416104732573437962", true},
		{"notes.txt", "", false},
		{"123abc.txt", "", false},
		{".txt", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := MessageIDFromFilename(tc.filename)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("MessageIDFromFilename(%q) = (%q, %v), want (%q, %v)",
				tc.filename, got, ok, tc.want, tc.ok)
		}
	}
}

type recordedRequest struct {
	method string
	path   string
	body   string
}

func newTestClient(t *testing.T) (*Client, *[]recordedRequest, func()) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			body:   string(raw),
		})
		w.WriteHeader(http.StatusNoContent)
	}))

	client := New(Options{
		BaseURL:                  server.URL,
		Token:                    "token",
		FodderChannelID:          "fodder-chan",
		ClassificationsChannelID: "class-chan",
		GuildID:                  "guild",
		MessageLimit:             2000,
		RequestsPerSecond:        1000,
		Logger:                   logging.NewJSONLoggerTo(io.Discard, "test", "error"),
	})
	return client, &requests, server.Close
}

func TestNotifyStartedAddsThinkingReaction(t *testing.T) {
	client, requests, done := newTestClient(t)
	defer done()

	if err := client.NotifyStarted(context.Background(), "123456.txt"); err != nil {
		t.Fatalf("NotifyStarted() error = %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.method != http.MethodPut {
		t.Fatalf("method = %s, want PUT", req.method)
	}
	if !strings.Contains(req.path, "/channels/fodder-chan/messages/123456/reactions/") {
		t.Fatalf("unexpected path: %s", req.path)
	}
}

func TestNotifyStartedNonNumericFilenameDoesNothing(t *testing.T) {
	client, requests, done := newTestClient(t)
	defer done()

	if err := client.NotifyStarted(context.Background(), "regular-note.txt"); err != nil {
		t.Fatalf("NotifyStarted() error = %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("no request expected for non-numeric filename")
	}
}

func TestNotifySuccessSwapsReactionAndPostsMessage(t *testing.T) {
	client, requests, done := newTestClient(t)
	defer done()

	cls := &domain.Classification{
		Category:   "recipes",
		Confidence: 0.92,
		Summary:    "Banana bread",
		Tags:       []string{"food", "baking"},
	}
	if err := client.NotifySuccess(context.Background(), "123456.txt", cls); err != nil {
		t.Fatalf("NotifySuccess() error = %v", err)
	}

	// delete thinking, put rocket, post message
	if len(*requests) != 3 {
		t.Fatalf("requests = %d, want 3", len(*requests))
	}
	if (*requests)[0].method != http.MethodDelete || (*requests)[1].method != http.MethodPut {
		t.Fatalf("reaction sequence = %s,%s", (*requests)[0].method, (*requests)[1].method)
	}

	post := (*requests)[2]
	if post.path != "/channels/class-chan/messages" {
		t.Fatalf("post path = %s", post.path)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(post.body), &payload); err != nil {
		t.Fatalf("decode message payload: %v", err)
	}
	content := payload["content"]
	for _, want := range []string{"Classification Success", "recipes", "92.0%", "Banana bread", "`food`"} {
		if !strings.Contains(content, want) {
			t.Fatalf("message missing %q:\n%s", want, content)
		}
	}
	if !strings.Contains(content, "https://discord.com/channels/guild/fodder-chan/123456") {
		t.Fatalf("message missing jump link:\n%s", content)
	}
}

func TestNotifySuccessNilClassification(t *testing.T) {
	client, requests, done := newTestClient(t)
	defer done()

	if err := client.NotifySuccess(context.Background(), "123456.txt", nil); err != nil {
		t.Fatalf("NotifySuccess() error = %v", err)
	}
	post := (*requests)[len(*requests)-1]
	if !strings.Contains(post.body, "No response data available") {
		t.Fatalf("nil classification message missing placeholder: %s", post.body)
	}
}

func TestNotifyFailureTruncatesLongErrors(t *testing.T) {
	client, requests, done := newTestClient(t)
	defer done()

	cause := errors.New(strings.Repeat("e", 3000))
	if err := client.NotifyFailure(context.Background(), "123456.txt", cause); err != nil {
		t.Fatalf("NotifyFailure() error = %v", err)
	}

	post := (*requests)[len(*requests)-1]
	var payload map[string]string
	if err := json.Unmarshal([]byte(post.body), &payload); err != nil {
		t.Fatalf("decode message payload: %v", err)
	}
	content := payload["content"]
	if !strings.Contains(content, "... (truncated)") {
		t.Fatalf("long error not truncated")
	}
	if strings.Contains(content, strings.Repeat("e", maxErrorChars+1)) {
		t.Fatalf("error text exceeds the cap")
	}
	if !strings.Contains(content, "Classification Fail") {
		t.Fatalf("failure header missing:\n%s", content)
	}
}

func TestDoReturnsAPIErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Missing Access"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := New(Options{
		BaseURL:         server.URL,
		Token:           "token",
		FodderChannelID: "fodder-chan",
		Logger:          logging.NewJSONLoggerTo(io.Discard, "test", "error"),
	})
	err := client.NotifyStarted(context.Background(), "123456.txt")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "Missing Access") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
