// Package openrouter adapts any OpenAI-compatible chat-completions endpoint
// (OpenRouter, OpenAI, local gateways) to the core Completer port.
package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fodder-io/masticator/internal/core/domain"
	"github.com/fodder-io/masticator/internal/infrastructure/resilience"
)

type Options struct {
	BaseURL      string
	APIKey       string
	Model        string
	Temperature  float32
	MaxTokens    int
	Timeout      time.Duration
	ExtraHeaders map[string]string
	Profile      domain.PromptProfile
	Executor     *resilience.Executor
}

type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	profile     domain.PromptProfile
	executor    *resilience.Executor
}

func New(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if len(opts.ExtraHeaders) > 0 {
		cfg.HTTPClient = &http.Client{
			Transport: &headerTransport{
				base:    http.DefaultTransport,
				headers: opts.ExtraHeaders,
			},
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		api:         openai.NewClientWithConfig(cfg),
		model:       opts.Model,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		timeout:     timeout,
		profile:     opts.Profile,
		executor:    opts.Executor,
	}
}

// Complete sends one file's content through the prompt builder to the
// endpoint and returns the first-choice completion text. The call carries an
// explicit deadline; a hung endpoint fails the file, not the pipeline.
func (c *Client) Complete(ctx context.Context, content, filename string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    BuildMessages(content, filename, c.profile),
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var out string
	call := func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return fmt.Errorf("chat completion request: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completion: no choices in response")
		}
		out = resp.Choices[0].Message.Content
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(callCtx, "llm.complete", call, classifyCompletionError)
	} else {
		err = call(callCtx)
	}
	if err != nil {
		return "", domain.WrapError(domain.ErrLLMCall, "llm completion", err)
	}
	return out, nil
}

// headerTransport injects the configured extra headers (OpenRouter app
// attribution and similar) into every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for header, value := range t.headers {
		if value != "" {
			clone.Header.Set(header, value)
		}
	}
	return t.base.RoundTrip(clone)
}
