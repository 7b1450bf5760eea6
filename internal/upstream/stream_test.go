package upstream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/finchhq/finch/internal/log"
)

func chunk(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

func TestStreamRecv(t *testing.T) {
	t.Parallel()

	body := chunk("Hel") + chunk("lo") + chunk("!") + "data: [DONE]\n\n"
	s := NewStream(io.NopCloser(strings.NewReader(body)), log.NewNop())
	defer func() { _ = s.Close() }()

	var got strings.Builder
	for {
		ev, err := s.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if ev.Done {
			break
		}
		got.WriteString(ev.Content)
	}
	if got.String() != "Hello!" {
		t.Errorf("assembled content = %q, want %q", got.String(), "Hello!")
	}

	// After Done, the stream reports EOF.
	if _, err := s.Recv(); !errors.Is(err, io.EOF) {
		t.Errorf("Recv after done = %v, want io.EOF", err)
	}
}

func TestStreamRecvSkipsMalformedChunk(t *testing.T) {
	t.Parallel()

	body := chunk("a") + "data: {not json\n\n" + chunk("b") + "data: [DONE]\n\n"
	s := NewStream(io.NopCloser(strings.NewReader(body)), log.NewNop())
	defer func() { _ = s.Close() }()

	var contents []string
	for {
		ev, err := s.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if ev.Done {
			break
		}
		contents = append(contents, ev.Content)
	}
	if len(contents) != 2 || contents[0] != "a" || contents[1] != "b" {
		t.Errorf("contents = %v, want [a b]", contents)
	}
}

func TestStreamRecvEOFWithoutDone(t *testing.T) {
	t.Parallel()

	s := NewStream(io.NopCloser(strings.NewReader(chunk("only"))), log.NewNop())
	defer func() { _ = s.Close() }()

	ev, err := s.Recv()
	if err != nil || ev.Content != "only" {
		t.Fatalf("Recv = %+v, %v", ev, err)
	}
	ev, err = s.Recv()
	if err != nil || !ev.Done {
		t.Errorf("Recv at EOF = %+v, %v, want Done event", ev, err)
	}
}

func TestStreamRecvSkipsEmptyDelta(t *testing.T) {
	t.Parallel()

	body := `data: {"choices":[{"delta":{"role":"assistant"}}]}` + "\n\n" +
		chunk("x") + "data: [DONE]\n\n"
	s := NewStream(io.NopCloser(strings.NewReader(body)), log.NewNop())
	defer func() { _ = s.Close() }()

	ev, err := s.Recv()
	if err != nil || ev.Content != "x" {
		t.Errorf("Recv = %+v, %v, want content x", ev, err)
	}
}

func TestStreamRecvAfterClose(t *testing.T) {
	t.Parallel()

	s := NewStream(io.NopCloser(strings.NewReader("")), log.NewNop())
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Recv(); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("Recv after close = %v, want ErrStreamClosed", err)
	}
}

func TestSSEDecoderMultiLineData(t *testing.T) {
	t.Parallel()

	dec := newSSEDecoder(strings.NewReader("data: one\ndata: two\n\n: comment\ndata: three\n\n"))

	got, err := dec.Next()
	if err != nil || string(got) != "one\ntwo" {
		t.Fatalf("Next = %q, %v", got, err)
	}
	got, err = dec.Next()
	if err != nil || string(got) != "three" {
		t.Fatalf("Next = %q, %v", got, err)
	}
	if _, err := dec.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next at end = %v, want io.EOF", err)
	}
}
