package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"datachat/internal/infrastructure"
	"datachat/internal/ws"
)

// Pinger reports backend reachability. The ClickHouse pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports service liveness and backend status.
type HealthService struct {
	version   string
	buildTime string
	pinger    Pinger
	hub       *ws.Hub
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Services  map[string]any `json:"services,omitempty"`
}

// VersionInfo is the version endpoint payload.
type VersionInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// NewHealthService creates a health service. Pinger and hub may be nil.
func NewHealthService(version, buildTime string, pinger Pinger, hub *ws.Hub, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		pinger:    pinger,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check reports overall status. A failing backend ping degrades the
// status but the endpoint itself still answers.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   s.version,
		Services: map[string]any{
			"uptime_seconds": time.Since(s.startTime).Seconds(),
		},
	}

	if s.pinger != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(pingCtx); err != nil {
			status.Status = "degraded"
			status.Services["clickhouse"] = map[string]any{
				"status": "unreachable",
				"error":  err.Error(),
			}
			s.logger.WarnContext(ctx, "clickhouse ping failed", slog.String("error", err.Error()))
		} else {
			status.Services["clickhouse"] = map[string]any{"status": "ok"}
		}
	}

	if s.hub != nil {
		status.Services["websocket_clients"] = s.hub.ClientCount()
	}

	return status
}

// Version reports build information.
func (s *HealthService) Version() VersionInfo {
	return VersionInfo{
		Version:   s.version,
		BuildTime: s.buildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
