// Package client maintains a chat session against the agent server: it
// sends turns, consumes the SSE response stream and keeps the transcript
// consistent across cancellation and failure.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/finchhq/finch/internal/log"
	"github.com/finchhq/finch/internal/prompt"
)

// ErrBusy is returned by Send while a previous turn is still streaming.
var ErrBusy = errors.New("client: a turn is already in flight")

// State describes what the session is doing.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
)

// Event is one update from an in-flight turn. Exactly one field is set.
type Event struct {
	// Content is a text delta appended to the assistant's reply.
	Content string
	// Err reports a failed turn. The transcript has already been rolled
	// back to its pre-failure shape when this arrives.
	Err error
	// Done marks the end of a successful turn.
	Done bool
}

// Session is a stateful conversation with the agent server. All exported
// methods are safe for concurrent use.
type Session struct {
	serverURL string
	client    *http.Client
	logger    log.Logger
	id        uuid.UUID

	mu      sync.Mutex
	persona string
	state   State
	history []prompt.Turn
	cancel  context.CancelFunc
}

// New creates a session against serverURL. client may be nil.
func New(serverURL string, client *http.Client, logger log.Logger) *Session {
	if client == nil {
		client = http.DefaultClient
	}
	return &Session{
		serverURL: strings.TrimSuffix(serverURL, "/"),
		client:    client,
		logger:    logger,
		id:        uuid.New(),
	}
}

// ID identifies this session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// SetPersona overrides the server's default system persona for subsequent
// turns. Empty restores the server default.
func (s *Session) SetPersona(persona string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persona = persona
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a copy of the transcript.
func (s *Session) History() []prompt.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]prompt.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Reset clears the transcript. In-flight turns are cancelled first.
func (s *Session) Reset() {
	s.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

// Cancel aborts the in-flight turn, if any. The partial assistant reply
// received so far stays in the transcript; no error event follows.
func (s *Session) Cancel() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// chatRequest is the wire shape of a turn request.
type chatRequest struct {
	Query   string        `json:"query"`
	History []prompt.Turn `json:"conversationHistory"`
	Persona string        `json:"agentInstructions,omitempty"`
}

// Send starts a turn and returns a channel of events for it. The user turn
// enters the transcript immediately; the assistant turn is added when the
// first delta arrives and extended in place after that. The channel closes
// after a terminal event (Done or Err) or after cancellation.
func (s *Session) Send(ctx context.Context, query string) (<-chan Event, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("client: empty query")
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	// Snapshot history before the optimistic append: the server receives
	// the transcript as it stood before this query.
	prior := make([]prompt.Turn, len(s.history))
	copy(prior, s.history)
	persona := s.persona

	s.history = append(s.history, prompt.Turn{Role: prompt.RoleUser, Content: query})
	s.state = StateSending

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	events := make(chan Event, 64)
	go func() {
		defer close(events)
		defer cancel()
		s.run(ctx, chatRequest{Query: query, History: prior, Persona: persona}, events)
	}()
	return events, nil
}

// run performs the HTTP exchange for one turn and settles session state.
func (s *Session) run(ctx context.Context, req chatRequest, events chan<- Event) {
	assistantAdded := false

	finish := func(ev Event) {
		s.mu.Lock()
		s.state = StateIdle
		s.cancel = nil
		if ev.Err != nil {
			if ctx.Err() != nil {
				// Cancelled by the user: keep the partial reply, say nothing.
				s.mu.Unlock()
				return
			}
			// Failed turn: an assistant stub with no content yet is noise,
			// drop it.
			if assistantAdded && len(s.history) > 0 && s.history[len(s.history)-1].Content == "" {
				s.history = s.history[:len(s.history)-1]
			}
		}
		s.mu.Unlock()
		events <- ev
	}

	body, err := json.Marshal(req)
	if err != nil {
		finish(Event{Err: fmt.Errorf("encoding turn request: %w", err)})
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/api/v1/agent", bytes.NewReader(body))
	if err != nil {
		finish(Event{Err: fmt.Errorf("building turn request: %w", err)})
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		finish(Event{Err: fmt.Errorf("sending turn: %w", err)})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		finish(Event{Err: decodeServerError(resp)})
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		if data == "[DONE]" {
			finish(Event{Done: true})
			return
		}

		var f struct {
			Content string `json:"content"`
		}
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			s.logger.Warn("skipping malformed frame", "session", s.id, "error", err)
			continue
		}
		if f.Content == "" {
			continue
		}

		s.mu.Lock()
		if !assistantAdded {
			s.history = append(s.history, prompt.Turn{Role: prompt.RoleAssistant, Content: f.Content})
			assistantAdded = true
			s.state = StateStreaming
		} else {
			s.history[len(s.history)-1].Content += f.Content
		}
		s.mu.Unlock()

		select {
		case events <- Event{Content: f.Content}:
		case <-ctx.Done():
		}
	}

	if err := scanner.Err(); err != nil {
		finish(Event{Err: fmt.Errorf("reading turn stream: %w", err)})
		return
	}
	// Connection closed without [DONE]; treat what we have as complete.
	finish(Event{Done: true})
}

// decodeServerError turns a non-200 response into an error, preferring the
// server's error envelope when one is present.
func decodeServerError(resp *http.Response) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error != "" {
		return fmt.Errorf("server rejected turn: %s (status %d)", envelope.Error, resp.StatusCode)
	}
	return fmt.Errorf("server rejected turn: status %d", resp.StatusCode)
}
