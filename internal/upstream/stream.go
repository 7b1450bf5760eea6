package upstream

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/finchhq/finch/internal/log"
)

// ErrStreamClosed is returned by Recv after Close.
var ErrStreamClosed = errors.New("upstream: stream closed")

// Event is one unit of model output. Content carries a text delta; Done
// marks the end of the stream. A Done event never carries content.
type Event struct {
	Content string
	Done    bool
}

// Stream decodes a model completion stream into Events. Not safe for
// concurrent use.
type Stream struct {
	body   io.ReadCloser
	dec    *sseDecoder
	logger log.Logger

	closed bool
	done   bool
}

// NewStream wraps an SSE response body. The caller owns closing the stream.
func NewStream(body io.ReadCloser, logger log.Logger) *Stream {
	return &Stream{
		body:   body,
		dec:    newSSEDecoder(body),
		logger: logger,
	}
}

// chunkResponse mirrors the completion chunk payload. Only the delta text
// is extracted; other fields pass through undecoded.
type chunkResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Recv returns the next event. After the terminal Done event it returns
// io.EOF. Frames that fail to decode are logged and skipped so one
// corrupted chunk does not kill the whole response.
func (s *Stream) Recv() (Event, error) {
	if s.closed {
		return Event{}, ErrStreamClosed
	}
	if s.done {
		return Event{}, io.EOF
	}

	for {
		data, err := s.dec.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Some providers close the connection without [DONE].
				s.done = true
				return Event{Done: true}, nil
			}
			return Event{}, err
		}

		data = bytes.TrimSpace(data)
		if bytes.Equal(data, []byte("[DONE]")) {
			s.done = true
			return Event{Done: true}, nil
		}

		var chunk chunkResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			s.logger.Warn("skipping malformed stream chunk", "error", err)
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return Event{Content: chunk.Choices[0].Delta.Content}, nil
	}
}

// Close releases the underlying connection. Safe to call more than once.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
