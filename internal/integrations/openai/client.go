package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"suggest-combiner/internal/domain"
)

const defaultTimeout = 15 * time.Second

// HTTPStatusError captures non-2xx upstream responses with status-aware context.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("openai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// ResponseError reports a 2xx response whose body could not be used.
type ResponseError struct {
	Reason string
	Err    error
}

func (e *ResponseError) Error() string {
	if e.Err == nil {
		return "openai: " + e.Reason
	}
	return fmt.Sprintf("openai: %s: %v", e.Reason, e.Err)
}

func (e *ResponseError) Unwrap() error {
	return e.Err
}

// MalformedResponse marks the error as a body-level failure for callers that
// classify errors by behaviour.
func (e *ResponseError) MalformedResponse() bool {
	return true
}

// Client is a focused OpenAI-compatible client for chat completions. It holds
// no credentials: connection parameters arrive with every call so that a
// rotated key is used on the next request.
type Client struct {
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout replaces the HTTP client with one bounded by d.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a Client with a 15s request timeout unless overridden.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		return nil, errors.New("openai: http client must not be nil")
	}
	return c, nil
}

// apiBaseURL returns the configured base endpoint with exactly one trailing
// slash. The path is used as given: no version segment is added.
func apiBaseURL(baseURL string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = domain.DefaultBaseURL
	}
	return base + "/"
}

func chatURL(baseURL string) string {
	return apiBaseURL(baseURL) + "chat/completions"
}

// Chat issues exactly one chat completion request and returns the content of
// the first choice. SDK retries are disabled.
func (c *Client) Chat(ctx context.Context, cfg domain.LLMConfig, req domain.ChatRequest) (string, error) {
	if cfg.APIKey == "" {
		return "", errors.New("openai: api key must not be empty")
	}
	if cfg.Model == "" {
		return "", errors.New("openai: model must not be empty")
	}
	if len(req.Messages) == 0 {
		return "", errors.New("openai: messages must not be empty")
	}

	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg, err := convertMessage(m)
		if err != nil {
			return "", err
		}
		messages = append(messages, msg)
	}

	params := oai.ChatCompletionNewParams{
		Model:       shared.ChatModel(cfg.Model),
		Messages:    messages,
		Temperature: param.NewOpt(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(int64(req.MaxTokens))
	}

	client := oai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(apiBaseURL(cfg.BaseURL)),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	)

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oai.Error
		if errors.As(err, &apiErr) {
			return "", &HTTPStatusError{
				StatusCode: apiErr.StatusCode,
				URL:        chatURL(cfg.BaseURL),
				Body:       apiErr.Message,
			}
		}
		if isTransportError(ctx, err) {
			return "", fmt.Errorf("openai: request failed: %w", err)
		}
		return "", &ResponseError{Reason: "decode response", Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", &ResponseError{Reason: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}

func isTransportError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr)
}

func convertMessage(m domain.ChatMessage) (oai.ChatCompletionMessageParamUnion, error) {
	switch m.Role {
	case "system":
		return oai.SystemMessage(m.Content), nil
	case "user":
		return oai.UserMessage(m.Content), nil
	case "assistant":
		return oai.AssistantMessage(m.Content), nil
	}
	return oai.ChatCompletionMessageParamUnion{}, fmt.Errorf("openai: unsupported role %q", m.Role)
}
