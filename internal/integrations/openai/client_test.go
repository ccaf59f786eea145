package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"suggest-combiner/internal/domain"
)

// ---------------------------------------------------------------------------
// URL helpers
// ---------------------------------------------------------------------------

func TestChatURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/chat/completions"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/chat/completions"},
		{"http://localhost:8080", "http://localhost:8080/chat/completions"},
		{"https://generativelanguage.googleapis.com/v1beta/openai", "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"},
		{" https://api.perplexity.ai// ", "https://api.perplexity.ai/chat/completions"},
		{"", "https://api.openai.com/v1/chat/completions"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, chatURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient()
	require.NoError(t, err)
	require.Equal(t, defaultTimeout, c.httpClient.Timeout)
}

func TestNewClient_Options(t *testing.T) {
	c, err := NewClient(WithTimeout(3 * time.Second))
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, c.httpClient.Timeout)

	c, err = NewClient(WithTimeout(0))
	require.NoError(t, err)
	require.Equal(t, defaultTimeout, c.httpClient.Timeout)

	_, err = NewClient(WithHTTPClient(nil))
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Client.Chat
// ---------------------------------------------------------------------------

func testConfig(srv *httptest.Server) domain.LLMConfig {
	return domain.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", Model: "gpt-mock"}
}

func testRequest() domain.ChatRequest {
	return domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: "system", Content: "You are polite."},
			{Role: "user", Content: "Combine these fragments"},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(WithHTTPClient(&http.Client{Timeout: 2 * time.Second}))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_Chat_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body struct {
			Model       string  `json:"model"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Equal(t, "gpt-mock", body.Model)
		require.Equal(t, 500, body.MaxTokens)
		require.InDelta(t, 0.7, body.Temperature, 1e-9)
		require.Len(t, body.Messages, 2)
		require.Equal(t, "system", body.Messages[0].Role)
		require.Equal(t, "user", body.Messages[1].Role)
		require.Contains(t, string(raw), "Combine these fragments")

		writeJSON(w, http.StatusOK, `{
			"id": "chatcmpl-123",
			"object": "chat.completion",
			"created": 1670000000,
			"model": "gpt-mock",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": { "role": "assistant", "content": "Hello from mock" }
			}]
		}`)
	}))
	defer srv.Close()

	resp, err := newTestClient(t).Chat(context.Background(), testConfig(srv), testRequest())
	require.NoError(t, err)
	require.Equal(t, "Hello from mock", resp)
}

func TestClient_Chat_BaseURLUsedAsGiven(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{path: "", want: "/chat/completions"},
		{path: "/", want: "/chat/completions"},
		{path: "/v1beta/openai", want: "/v1beta/openai/chat/completions"},
		{path: "/v1beta/openai/", want: "/v1beta/openai/chat/completions"},
	}
	for _, tc := range cases {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			writeJSON(w, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"ok"}}]}`)
		}))

		cfg := testConfig(srv)
		cfg.BaseURL = srv.URL + tc.path
		resp, err := newTestClient(t).Chat(context.Background(), cfg, testRequest())
		srv.Close()

		require.NoError(t, err, "base path %q", tc.path)
		require.Equal(t, "ok", resp)
		require.Equal(t, tc.want, gotPath, "base path %q", tc.path)
	}
}

func TestClient_Chat_Non200(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusTooManyRequests, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, `{"error":{"message":"upstream says no","type":"invalid_request_error"}}`)
		}))

		_, err := newTestClient(t).Chat(context.Background(), testConfig(srv), testRequest())
		srv.Close()

		var statusErr *HTTPStatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, status, statusErr.HTTPStatusCode())
		require.Contains(t, err.Error(), "unexpected status")
	}
}

func TestClient_Chat_DoesNotRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, `{"error":{"message":"overloaded"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t).Chat(context.Background(), testConfig(srv), testRequest())
	require.Error(t, err)
	require.Equal(t, int32(1), hits.Load())
}

func TestClient_Chat_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `not-a-json`)
	}))
	defer srv.Close()

	_, err := newTestClient(t).Chat(context.Background(), testConfig(srv), testRequest())
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	require.True(t, respErr.MalformedResponse())
}

func TestClient_Chat_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"choices":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t).Chat(context.Background(), testConfig(srv), testRequest())
	var respErr *ResponseError
	require.ErrorAs(t, err, &respErr)
	require.Contains(t, err.Error(), "no choices")
}

func TestClient_Chat_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, `{"choices":[]}`)
	}))
	defer srv.Close()

	c, err := NewClient(WithTimeout(50 * time.Millisecond))
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), testConfig(srv), testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")

	var respErr *ResponseError
	require.False(t, errors.As(err, &respErr))
}

func TestClient_Chat_NetworkError(t *testing.T) {
	c, err := NewClient(WithTimeout(100 * time.Millisecond))
	require.NoError(t, err)

	cfg := domain.LLMConfig{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1", Model: "gpt-mock"}
	_, err = c.Chat(context.Background(), cfg, testRequest())
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Chat_RejectsUnusableInput(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Chat(context.Background(), domain.LLMConfig{Model: "gpt-mock"}, testRequest())
	require.ErrorContains(t, err, "api key")

	_, err = c.Chat(context.Background(), domain.LLMConfig{APIKey: "sk-test"}, testRequest())
	require.ErrorContains(t, err, "model")

	_, err = c.Chat(context.Background(), domain.LLMConfig{APIKey: "sk-test", Model: "m"}, domain.ChatRequest{})
	require.ErrorContains(t, err, "messages")

	req := testRequest()
	req.Messages[0].Role = "tool"
	_, err = c.Chat(context.Background(), domain.LLMConfig{APIKey: "sk-test", Model: "m"}, req)
	require.ErrorContains(t, err, "unsupported role")
}
