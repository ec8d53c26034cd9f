package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat/internal/services"
)

type staticHealth struct {
	status services.HealthStatus
}

func (s *staticHealth) Check(ctx context.Context) services.HealthStatus { return s.status }
func (s *staticHealth) Version() services.VersionInfo {
	return services.VersionInfo{Version: "1.2.3", GoVersion: "go1.23"}
}

func TestHealthCheckEndpoint(t *testing.T) {
	handler := NewHealthHandler(&staticHealth{status: services.HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.2.3",
	}}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	handler.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "healthy", got["status"])
}

func TestVersionEndpoint(t *testing.T) {
	handler := NewHealthHandler(&staticHealth{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rec := httptest.NewRecorder()
	handler.Version(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "1.2.3", got["version"])
}
