// Package services composes the domain packages into the operations the
// HTTP transport exposes.
package services

import (
	"context"
	"errors"
	"log/slog"

	"datachat/internal/analysis"
	"datachat/internal/dataset"
	"datachat/internal/engine"
	"datachat/internal/infrastructure"
	"datachat/internal/planner"
	"datachat/internal/ws"
)

// AnalysisService runs analysis sessions and mirrors their events to the
// observer hub.
type AnalysisService struct {
	runner *analysis.Runner
	hub    *ws.Hub
	logger *slog.Logger
}

// NewAnalysisService wires the provider, planner and engine factory into
// a session runner. The hub may be nil when no observer mirror is wanted.
func NewAnalysisService(
	provider dataset.Provider,
	generator planner.Generator,
	engines engine.Factory,
	cfg analysis.Config,
	metrics *analysis.Metrics,
	hub *ws.Hub,
	logger *slog.Logger,
) *AnalysisService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &AnalysisService{
		runner: analysis.NewRunner(provider, generator, engines, cfg, metrics, logger),
		hub:    hub,
		logger: logger.With(slog.String("component", "analysis_service")),
	}
}

// Analyze executes one session, emitting every event to sink and, when
// configured, to the observer hub. The returned error is nil for sessions
// that completed their event stream, including plan-level failures that
// were reported as fatal_error events.
func (s *AnalysisService) Analyze(ctx context.Context, businessID, query string, sink analysis.Sink) error {
	out := sink
	if s.hub != nil {
		out = teeSinks(sink, s.hub)
	}

	err := s.runner.Run(ctx, businessID, query, out)
	if err != nil {
		var sessionErr *analysis.SessionError
		if errors.As(err, &sessionErr) {
			// A fatal_error event was already delivered; the stream is
			// complete from the client's point of view.
			s.logger.WarnContext(ctx, "session ended fatally",
				slog.String("business_id", businessID),
				slog.String("kind", string(sessionErr.Kind)),
				slog.String("error", sessionErr.Message))
			return nil
		}
		return err
	}
	return nil
}

// teeSinks fans one event out to several sinks. The first error wins but
// remaining sinks still receive the event.
func teeSinks(sinks ...analysis.Sink) analysis.Sink {
	return analysis.SinkFunc(func(ctx context.Context, event analysis.Event) error {
		var first error
		for _, s := range sinks {
			if err := s.Emit(ctx, event); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
