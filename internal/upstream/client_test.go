package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/finchhq/finch/internal/log"
	"github.com/finchhq/finch/internal/prompt"
)

func TestClientChatStream(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req struct {
			Model       string           `json:"model"`
			Messages    []prompt.Message `json:"messages"`
			Stream      bool             `json:"stream"`
			Temperature float32          `json:"temperature"`
			MaxTokens   int              `json:"max_tokens"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if !req.Stream {
			t.Error("stream flag not set")
		}
		if req.Model != "test-model" || req.Temperature != 0.7 || req.MaxTokens != 2000 {
			t.Errorf("request params = %q %v %d", req.Model, req.Temperature, req.MaxTokens)
		}
		if len(req.Messages) != 2 {
			t.Errorf("messages = %d, want 2", len(req.Messages))
		}

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(chunk("hi") + "data: [DONE]\n\n"))
	}))
	defer server.Close()

	c := NewClient(Config{
		BaseURL:     server.URL,
		APIKey:      "test-key",
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   2000,
	}, server.Client(), log.NewNop())

	stream, err := c.ChatStream(context.Background(), []prompt.Message{
		{Role: prompt.RoleSystem, Content: "be brief"},
		{Role: prompt.RoleUser, Content: "hello"},
	})
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	defer func() { _ = stream.Close() }()

	ev, err := stream.Recv()
	if err != nil || ev.Content != "hi" {
		t.Errorf("Recv = %+v, %v", ev, err)
	}
}

func TestClientChatStreamStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	c := NewClient(Config{BaseURL: server.URL, APIKey: "bad"}, server.Client(), log.NewNop())
	_, err := c.ChatStream(context.Background(), []prompt.Message{{Role: prompt.RoleUser, Content: "x"}})

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("ChatStream error = %v, want StatusError", err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d", statusErr.StatusCode)
	}
}
