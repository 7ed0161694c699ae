// Package discord notifies a Discord server about pipeline progress over the
// plain HTTP API: a transient reaction while a file is in flight, a result
// reaction when it finishes, and a formatted message in the classifications
// channel. Everything here is best-effort; the pipeline never depends on it.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/fodder-io/masticator/internal/core/domain"
)

const defaultBaseURL = "https://discord.com/api/v10"

const (
	emojiThinking = "\U0001F914" // thinking face
	emojiSuccess  = "\U0001F680" // rocket
	emojiFailure  = "❌"     // cross mark
)

// Discord rejects message bodies much past this; errors are clipped to leave
// room for the wrapper text.
const maxErrorChars = 1800

type Options struct {
	BaseURL                  string
	Token                    string
	FodderChannelID          string
	ClassificationsChannelID string
	GuildID                  string
	MessageLimit             int
	RequestsPerSecond        int
	Burst                    int
	Logger                   *slog.Logger
}

type Client struct {
	httpClient               *http.Client
	baseURL                  string
	token                    string
	fodderChannelID          string
	classificationsChannelID string
	guildID                  string
	messageLimit             int
	limiter                  *rate.Limiter
	logger                   *slog.Logger
	now                      func() time.Time
}

func New(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	messageLimit := opts.MessageLimit
	if messageLimit <= 0 {
		messageLimit = 2000
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = rps
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		httpClient:               &http.Client{Timeout: 15 * time.Second},
		baseURL:                  strings.TrimRight(baseURL, "/"),
		token:                    opts.Token,
		fodderChannelID:          opts.FodderChannelID,
		classificationsChannelID: opts.ClassificationsChannelID,
		guildID:                  opts.GuildID,
		messageLimit:             messageLimit,
		limiter:                  rate.NewLimiter(rate.Limit(rps), burst),
		logger:                   logger,
		now:                      time.Now,
	}
}

// MessageIDFromFilename extracts the originating Discord message id from a
// file name. Only purely numeric stems qualify; anything else means the file
// did not come from the fodder channel and no notification is attempted.
func MessageIDFromFilename(filename string) (string, bool) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if stem == "" {
		return "", false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return stem, true
}

func (c *Client) NotifyStarted(ctx context.Context, filename string) error {
	messageID, ok := MessageIDFromFilename(filename)
	if !ok {
		c.logger.Debug("no message id in filename, skipping reaction", "filename", filename)
		return nil
	}
	return c.react(ctx, http.MethodPut, messageID, emojiThinking)
}

func (c *Client) NotifySuccess(ctx context.Context, filename string, cls *domain.Classification) error {
	messageID, ok := MessageIDFromFilename(filename)
	if !ok {
		return nil
	}

	if err := c.swapReaction(ctx, messageID, emojiSuccess); err != nil {
		c.logger.Warn("update reaction failed", "message_id", messageID, "error", err)
	}
	return c.postMessage(ctx, c.successMessage(messageID, cls))
}

func (c *Client) NotifyFailure(ctx context.Context, filename string, cause error) error {
	messageID, ok := MessageIDFromFilename(filename)
	if !ok {
		return nil
	}

	if err := c.swapReaction(ctx, messageID, emojiFailure); err != nil {
		c.logger.Warn("update reaction failed", "message_id", messageID, "error", err)
	}
	return c.postMessage(ctx, c.failureMessage(messageID, cause))
}

func (c *Client) swapReaction(ctx context.Context, messageID, emoji string) error {
	if err := c.react(ctx, http.MethodDelete, messageID, emojiThinking); err != nil {
		c.logger.Debug("remove thinking reaction failed", "message_id", messageID, "error", err)
	}
	return c.react(ctx, http.MethodPut, messageID, emoji)
}

func (c *Client) react(ctx context.Context, method, messageID, emoji string) error {
	if c.fodderChannelID == "" {
		c.logger.Debug("fodder channel not configured, skipping reaction")
		return nil
	}
	path := fmt.Sprintf("/channels/%s/messages/%s/reactions/%s/@me",
		c.fodderChannelID, messageID, url.PathEscape(emoji))
	return c.do(ctx, method, path, nil)
}

func (c *Client) postMessage(ctx context.Context, content string) error {
	if c.classificationsChannelID == "" {
		c.logger.Debug("classifications channel not configured, skipping notification")
		return nil
	}
	path := fmt.Sprintf("/channels/%s/messages", c.classificationsChannelID)
	for _, segment := range Segment(content, c.messageLimit) {
		if err := c.do(ctx, http.MethodPost, path, map[string]string{"content": segment}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) successMessage(messageID string, cls *domain.Classification) string {
	link := "Message ID: " + messageID
	if c.guildID != "" && c.fodderChannelID != "" {
		link = fmt.Sprintf("https://discord.com/channels/%s/%s/%s", c.guildID, c.fodderChannelID, messageID)
	}

	if cls == nil {
		return fmt.Sprintf("**Classification Success** %s\nOriginal message ID: %s\nTimestamp: %s\n---\n*No response data available*",
			emojiSuccess, messageID, c.now().Format("2006-01-02 15:04:05"))
	}

	parts := []string{
		"**Classification Success** " + emojiSuccess,
		"**Original Message:** " + link,
		"**Timestamp:** " + c.now().Format("2006-01-02 15:04:05"),
		"---",
		"**Category:** " + cls.Category,
		fmt.Sprintf("**Confidence:** %.1f%%", cls.Confidence*100),
	}
	if cls.Subcategory != "" {
		parts = append(parts, "**Subcategory:** "+cls.Subcategory)
	}
	parts = append(parts, "", "**Summary:** "+cls.Summary, "")
	if len(cls.Tags) > 0 {
		quoted := make([]string, len(cls.Tags))
		for i, tag := range cls.Tags {
			quoted[i] = "`" + tag + "`"
		}
		parts = append(parts, "**Tags:** "+strings.Join(quoted, ", "))
	}
	return strings.Join(parts, "\n")
}

func (c *Client) failureMessage(messageID string, cause error) string {
	errMsg := "Unknown error"
	if cause != nil {
		errMsg = cause.Error()
	}
	if len(errMsg) > maxErrorChars {
		errMsg = errMsg[:maxErrorChars] + "... (truncated)"
	}
	return fmt.Sprintf("**Classification Fail** %s\nOriginal message ID: %s\nTimestamp: %s\n---\n```\n%s\n```",
		emojiFailure, messageID, c.now().Format("2006-01-02 15:04:05"), errMsg)
}

func (c *Client) do(ctx context.Context, method, path string, payload any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discord rate limit wait: %w", err)
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal discord payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create discord request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("discord %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("discord %s %s status: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
