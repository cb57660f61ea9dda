// Package chat talks to an OpenAI-compatible chat-completions endpoint and
// keeps the persisted transcript.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	DefaultEndpoint    = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel       = "deepseek/deepseek-r1:free"
	DefaultReferer     = "https://traetodo.app"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000

	MissingKeyReply = "Please set your API key in the settings."
)

// KeySource returns the API key at call time so settings edits apply without
// rebuilding the client.
type KeySource func() string

type Client struct {
	Endpoint    string
	Model       string
	Referer     string
	Temperature float64
	MaxTokens   int
	HTTPClient  *http.Client
	Key         KeySource
}

func NewClient(key KeySource) *Client {
	return &Client{
		Endpoint:    DefaultEndpoint,
		Model:       DefaultModel,
		Referer:     DefaultReferer,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		HTTPClient:  http.DefaultClient,
		Key:         key,
	}
}

type requestPayload struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsePayload struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
}

// statusError is a non-2xx reply from the endpoint.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%d %s - %s", e.code, http.StatusText(e.code), e.body)
}

var errNoChoices = errors.New("response contained no choices")

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.Key != nil && strings.TrimSpace(c.Key()) != ""
}

// Send posts history followed by message and returns the assistant's text.
// Every failure is returned as a readable string; nothing is retried.
func (c *Client) Send(ctx context.Context, message string, history []Message) string {
	if !c.Configured() {
		return MissingKeyReply
	}

	reply, err := c.complete(ctx, strings.TrimSpace(c.Key()), message, history)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			slog.Warn("chat request rejected", "status", se.code, "model", c.Model)
			return "Error: " + se.Error()
		}
		slog.Error("chat request failed", "error", err, "model", c.Model)
		return "An error occurred: " + err.Error()
	}
	return reply
}

func (c *Client) complete(ctx context.Context, key, message string, history []Message) (string, error) {
	payload := requestPayload{
		Model:       c.Model,
		Messages:    make([]wireMessage, 0, len(history)+1),
		Temperature: c.Temperature,
		MaxTokens:   c.MaxTokens,
	}
	for _, m := range history {
		payload.Messages = append(payload.Messages, wireMessage{Role: m.Role(), Content: m.Content})
	}
	payload.Messages = append(payload.Messages, wireMessage{Role: "user", Content: message})

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")
	if c.Referer != "" {
		req.Header.Set("HTTP-Referer", c.Referer)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	slog.Debug("chat request", "endpoint", c.Endpoint, "turns", len(payload.Messages))
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{code: resp.StatusCode, body: string(raw)}
	}

	var out responsePayload
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errNoChoices
	}
	return out.Choices[0].Message.Content, nil
}
