package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/finchhq/finch/internal/log"
)

// errorResponse is the wire shape of all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response. It encodes into a buffer first so
// headers go out only after the payload is known good.
func writeJSON(w http.ResponseWriter, status int, data any, logger log.Logger) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(data); err != nil {
		logger.Error("encoding JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		// Client disconnects are common here.
		logger.Debug("writing response body", "error", err)
	}
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, message string, logger log.Logger) {
	writeJSON(w, status, errorResponse{Error: message}, logger)
}
