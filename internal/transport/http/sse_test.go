package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat/internal/analysis"
)

func TestNewSSEWriterSetsStreamHeaders(t *testing.T) {
	rec := httptest.NewRecorder()

	_, err := NewSSEWriter(rec)
	require.NoError(t, err)

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
}

func TestSSEWriterFrameFormat(t *testing.T) {
	rec := httptest.NewRecorder()
	sink, err := NewSSEWriter(rec)
	require.NoError(t, err)

	require.NoError(t, sink.Emit(context.Background(), analysis.NewInitEvent(2)))
	require.NoError(t, sink.Emit(context.Background(), analysis.NewCompleteEvent()))

	body := rec.Body.String()
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	require.Len(t, frames, 2)
	assert.Equal(t, `data: {"type":"init","total_steps":2}`, frames[0])
	assert.Equal(t, `data: {"type":"complete"}`, frames[1])
	assert.True(t, rec.Flushed)
}

type plainWriter struct{}

func (plainWriter) Header() http.Header        { return http.Header{} }
func (plainWriter) Write(b []byte) (int, error) { return len(b), nil }
func (plainWriter) WriteHeader(statusCode int) {}

func TestNewSSEWriterRequiresFlusher(t *testing.T) {
	_, err := NewSSEWriter(plainWriter{})
	assert.Error(t, err)
}
