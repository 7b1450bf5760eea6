// Package upstream speaks the OpenAI-compatible chat completion protocol
// used by the model provider and decodes its server-sent event stream.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/finchhq/finch/internal/log"
	"github.com/finchhq/finch/internal/prompt"
)

// StatusError reports a non-success response from the model provider.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, e.Body)
}

// Config holds the connection and sampling parameters for the provider.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client issues streaming chat completion requests.
type Client struct {
	cfg    Config
	client *http.Client
	logger log.Logger
}

func NewClient(cfg Config, client *http.Client, logger log.Logger) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{cfg: cfg, client: client, logger: logger}
}

// chatRequest is the wire format of a streaming completion request.
type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []prompt.Message `json:"messages"`
	Stream      bool             `json:"stream"`
	Temperature float32          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

// maxErrorBody bounds how much of an error response gets captured into the
// returned StatusError.
const maxErrorBody = 4 << 10

// ChatStream sends messages to the provider and returns the decoded event
// stream. The caller must Close the stream. A non-2xx response is returned
// as a StatusError carrying the provider's error body.
func (c *Client) ChatStream(ctx context.Context, messages []prompt.Message) (*Stream, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Stream:      true,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling model provider: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	c.logger.Debug("model stream opened", "model", c.cfg.Model, "messages", len(messages))
	return NewStream(resp.Body, c.logger), nil
}
