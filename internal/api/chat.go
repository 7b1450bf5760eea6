package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/finchhq/finch/internal/agent"
	"github.com/finchhq/finch/internal/log"
	"github.com/finchhq/finch/internal/upstream"
)

// maxRequestBody bounds chat request bodies.
const maxRequestBody = 1 << 20

// Responder runs one chat turn and returns the model's event stream.
type Responder interface {
	Respond(ctx context.Context, req agent.Request) (*upstream.Stream, error)
}

// chatHandler streams agent responses over server-sent events.
type chatHandler struct {
	agent  Responder
	logger log.Logger
}

// frame is one SSE data payload sent to the client.
type frame struct {
	Content string `json:"content"`
}

func (h *chatHandler) serve(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	stream, err := h.agent.Respond(r.Context(), req)
	if err != nil {
		h.writeRespondError(w, err)
		return
	}
	defer func() { _ = stream.Close() }()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	requestID, _ := requestIDFromContext(r.Context())
	for {
		ev, err := stream.Recv()
		if err != nil {
			// Headers are out; all we can do is stop the stream.
			if !errors.Is(err, io.EOF) && r.Context().Err() == nil {
				h.logger.Warn("model stream broke mid-response", "error", err, "request_id", requestID)
			}
			return
		}
		if ev.Done {
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
			return
		}

		payload, err := json.Marshal(frame{Content: ev.Content})
		if err != nil {
			h.logger.Error("encoding stream frame", "error", err, "request_id", requestID)
			return
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			// Client went away.
			h.logger.Debug("client disconnected mid-stream", "request_id", requestID)
			return
		}
		flusher.Flush()
	}
}

func (h *chatHandler) writeRespondError(w http.ResponseWriter, err error) {
	var statusErr *upstream.StatusError
	switch {
	case errors.Is(err, agent.ErrBadRequest):
		writeError(w, http.StatusBadRequest, "query is required", h.logger)
	case errors.As(err, &statusErr):
		h.logger.Error("model provider rejected request",
			"status", statusErr.StatusCode,
			"body", statusErr.Body,
		)
		writeError(w, http.StatusBadGateway, "model provider error", h.logger)
	default:
		h.logger.Error("agent turn failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error", h.logger)
	}
}
