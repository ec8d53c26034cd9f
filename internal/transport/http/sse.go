package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"datachat/internal/analysis"
)

// SSEWriter streams session events as Server-Sent Events. Each event is
// one `data: <json>` frame flushed immediately, so clients see progress
// as it happens rather than a buffered burst at the end.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter prepares the response for streaming and returns a writer.
// It fails when the underlying connection cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support flushing")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	// Proxies must not buffer the stream.
	h.Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// Emit implements analysis.Sink. A write error means the client is gone
// and the session should stop.
func (s *SSEWriter) Emit(ctx context.Context, event analysis.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	s.flusher.Flush()
	return nil
}
