package tui

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
)

// streamBufferSize is sized for ~1.5s burst at 60 FPS refresh rate.
// This prevents backpressure during UI render delays while keeping
// memory bounded.
const streamBufferSize = 100

// streamEvent is a discriminated union for all stream events. Using a
// single channel with a union type simplifies select logic and avoids
// multi-channel closure handling.
type streamEvent struct {
	// Exactly one of these fields is set per event
	text string // Text chunk (when non-empty)
	err  error  // Error (when non-nil)
	done bool   // True when stream completed successfully
}

// Stream message types for Bubble Tea
type streamStartedMsg struct {
	eventCh <-chan streamEvent
	cancel  context.CancelFunc
}

type streamTextMsg struct {
	text string
}

type streamDoneMsg struct{}

type streamErrorMsg struct {
	err error
}

// startStream creates a command that initiates a turn against the server.
//
// Goroutine lifecycle: the spawned goroutine exits when the session's event
// channel closes, which happens on completion, error, or cancellation.
func (m *Model) startStream(query string) tea.Cmd {
	session := m.session
	logger := m.logger
	parent := m.ctx

	return func() tea.Msg {
		eventCh := make(chan streamEvent, streamBufferSize)

		// Bound the turn to prevent indefinite hangs
		ctx, cancel := context.WithTimeout(parent, streamTimeout)

		sessionEvents, err := session.Send(ctx, query)
		if err != nil {
			cancel()
			return streamErrorMsg{err: err}
		}

		go func() {
			defer cancel()
			defer close(eventCh)

			// Panic recovery to prevent TUI lockup
			defer func() {
				if r := recover(); r != nil {
					logger.Error("stream panic recovered", "panic", r)
					select {
					case eventCh <- streamEvent{err: fmt.Errorf("stream panic: %v", r)}:
					default:
					}
				}
			}()

			terminal := false
			for ev := range sessionEvents {
				switch {
				case ev.Err != nil:
					terminal = true
					select {
					case eventCh <- streamEvent{err: ev.Err}:
					case <-ctx.Done():
					}
				case ev.Done:
					terminal = true
					select {
					case eventCh <- streamEvent{done: true}:
					case <-ctx.Done():
					}
				case ev.Content != "":
					select {
					case eventCh <- streamEvent{text: ev.Content}:
					case <-ctx.Done():
					}
				}
			}

			// The session closes its channel without a terminal event when
			// the turn is cancelled. Surface that as a completion signal so
			// the UI always leaves the streaming state.
			if !terminal {
				err := ctx.Err()
				if err == nil {
					err = fmt.Errorf("stream ended unexpectedly without completion")
					logger.Warn("session stream exited without terminal event")
				}
				select {
				case eventCh <- streamEvent{err: err}:
				default:
				}
			}
		}()

		return streamStartedMsg{
			eventCh: eventCh,
			cancel:  cancel,
		}
	}
}

// listenForStream creates a command to wait for the next stream event.
// Empty events are skipped via loop instead of recursion to prevent stack
// overflow under pathological conditions.
func listenForStream(eventCh <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		if eventCh == nil {
			return nil
		}

		for {
			event, ok := <-eventCh
			if !ok {
				return streamErrorMsg{err: fmt.Errorf("stream ended without completion signal")}
			}

			switch {
			case event.err != nil:
				return streamErrorMsg{err: event.err}
			case event.done:
				return streamDoneMsg{}
			case event.text != "":
				return streamTextMsg{text: event.text}
			default:
				continue
			}
		}
	}
}
