package tui

import (
	"context"
	"errors"
	"testing"

	"charm.land/bubbles/v2/textarea"
	"go.uber.org/goleak"

	"github.com/finchhq/finch/internal/client"
	"github.com/finchhq/finch/internal/log"
)

// goleakOptions filters persistent goroutines expected to exist.
func goleakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*http2clientConnReadLoop).run"),
	}
}

// newTestModel creates a Model with a properly initialized textarea.
func newTestModel() *Model {
	ta := textarea.New()
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	return &Model{
		state:    StateInput,
		input:    ta,
		session:  client.New("http://127.0.0.1:1", nil, log.NewNop()),
		logger:   log.NewNop(),
		history:  make([]string, 0),
		styles:   DefaultStyles(),
		markdown: newMarkdownRenderer(80),
		ctx:      context.Background(),
	}
}

func TestNew_ErrorOnNilSession(t *testing.T) {
	if _, err := New(context.Background(), nil, log.NewNop()); err == nil {
		t.Error("Expected error for nil session")
	}
}

func TestNew_ErrorOnNilContext(t *testing.T) {
	session := client.New("http://127.0.0.1:1", nil, log.NewNop())
	//lint:ignore SA1012 intentionally testing nil context handling
	if _, err := New(nil, session, log.NewNop()); err == nil { //nolint:staticcheck
		t.Error("Expected error for nil context")
	}
}

func TestModel_Init(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	if cmd := m.Init(); cmd == nil {
		t.Error("Init should return a command (blink + spinner tick)")
	}
}

func TestModel_HandleSlashCommands(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	tests := []struct {
		name     string
		cmd      string
		wantExit bool
		wantMsgs int // messages added on top of the pre-populated one
	}{
		{"help", "/help", false, 1},
		{"clear", "/clear", false, 0},
		{"exit", "/exit", true, 0},
		{"quit", "/quit", true, 0},
		{"unknown", "/unknown", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel()
			m.messages = []Message{{Role: roleUser, Text: "hello"}}

			model, cmd := m.handleSlashCommand(tt.cmd)
			result := model.(*Model)

			if tt.wantExit {
				if cmd == nil {
					t.Error("Expected quit command for exit")
				}
				return
			}
			if tt.cmd == "/clear" {
				if len(result.messages) != 0 {
					t.Error("/clear should clear messages")
				}
				return
			}
			if len(result.messages) != 1+tt.wantMsgs {
				t.Errorf("Expected %d messages, got %d", 1+tt.wantMsgs, len(result.messages))
			}
		})
	}
}

func TestModel_StreamTextEntersStreamingState(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	m.state = StateThinking

	model, _ := m.Update(streamTextMsg{text: "hello"})
	result := model.(*Model)

	if result.state != StateStreaming {
		t.Errorf("state = %v, want StateStreaming", result.state)
	}
	if result.output.String() != "hello" {
		t.Errorf("output = %q", result.output.String())
	}
}

func TestModel_StreamDoneReturnsToInput(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	m.state = StateStreaming
	m.output.WriteString("full reply")

	model, _ := m.Update(streamDoneMsg{})
	result := model.(*Model)

	if result.state != StateInput {
		t.Errorf("state = %v, want StateInput", result.state)
	}
	last := result.messages[len(result.messages)-1]
	if last.Role != roleAssistant || last.Text != "full reply" {
		t.Errorf("final message = %+v", last)
	}
	if result.output.Len() != 0 {
		t.Error("output buffer not reset after done")
	}
}

func TestModel_StreamErrorAddsErrorMessage(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	m.state = StateStreaming

	model, _ := m.Update(streamErrorMsg{err: errors.New("server down")})
	result := model.(*Model)

	if result.state != StateInput {
		t.Errorf("state = %v, want StateInput", result.state)
	}
	last := result.messages[len(result.messages)-1]
	if last.Role != roleError || last.Text != "server down" {
		t.Errorf("final message = %+v", last)
	}
}

func TestModel_CancelKeepsPartialOutput(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	m.state = StateStreaming
	m.output.WriteString("partial rep")

	model, _ := m.Update(streamErrorMsg{err: context.Canceled})
	result := model.(*Model)

	if result.state != StateInput {
		t.Errorf("state = %v, want StateInput", result.state)
	}
	if len(result.messages) != 2 {
		t.Fatalf("messages = %+v, want partial reply + canceled marker", result.messages)
	}
	if result.messages[0].Role != roleAssistant || result.messages[0].Text != "partial rep" {
		t.Errorf("partial reply = %+v", result.messages[0])
	}
	if result.messages[1].Role != roleSystem || result.messages[1].Text != "(Canceled)" {
		t.Errorf("marker = %+v", result.messages[1])
	}
}

func TestModel_AddMessageBounded(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	for i := 0; i < maxMessages+10; i++ {
		m.addMessage(Message{Role: roleUser, Text: "x"})
	}
	if len(m.messages) != maxMessages {
		t.Errorf("messages = %d, want %d", len(m.messages), maxMessages)
	}
}

func TestModel_HistoryNavigation(t *testing.T) {
	defer goleak.VerifyNone(t, goleakOptions()...)

	m := newTestModel()
	m.history = []string{"first", "second"}
	m.historyIdx = 2

	model, _ := m.navigateHistory(-1)
	result := model.(*Model)
	if got := result.input.Value(); got != "second" {
		t.Errorf("input = %q, want second", got)
	}

	model, _ = result.navigateHistory(-1)
	result = model.(*Model)
	if got := result.input.Value(); got != "first" {
		t.Errorf("input = %q, want first", got)
	}

	// Down past the end clears the input.
	model, _ = result.navigateHistory(1)
	result = model.(*Model)
	model, _ = result.navigateHistory(1)
	result = model.(*Model)
	if got := result.input.Value(); got != "" {
		t.Errorf("input = %q, want empty", got)
	}
}
