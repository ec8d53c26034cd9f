package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"datachat/internal/dataset"
	"datachat/internal/engine"
	"datachat/internal/planner"
)

// Config holds execution policy for the runner.
type Config struct {
	// AbortOnError stops the session at the first failed step. The
	// default (false) keeps attempting the remaining steps.
	AbortOnError bool
	// StepYield is the pause after each emitted event, giving a slow
	// consumer room to drain without stalling execution indefinitely.
	StepYield time.Duration
}

// Runner drives one analysis session end to end: dataset fetch, plan
// generation and validation, then strictly sequential step execution
// with the working dataset threaded as a fold across steps. All events
// for a session are emitted from the one goroutine calling Run, so
// emission order is exactly execution order.
type Runner struct {
	provider  dataset.Provider
	generator planner.Generator
	engines   engine.Factory
	config    Config
	metrics   *Metrics
	logger    *slog.Logger
}

// NewRunner creates a session runner. A nil metrics falls back to a
// private registry so callers without scraping still work.
func NewRunner(provider dataset.Provider, generator planner.Generator, engines engine.Factory, cfg Config, metrics *Metrics, logger *slog.Logger) *Runner {
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Runner{
		provider:  provider,
		generator: generator,
		engines:   engines,
		config:    cfg,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "analysis_runner")),
	}
}

// Run executes one session, emitting events to sink in order. A failure
// before init produces exactly one fatal_error event; afterwards each
// step produces step_start plus step_complete or step_error, and the
// session always ends with complete once every step was attempted.
// Cancellation of ctx (client disconnect) stops the session before the
// next step starts.
func (r *Runner) Run(ctx context.Context, businessID, query string, sink Sink) error {
	session := NewSession(businessID, query)
	logger := r.logger.With(
		slog.String("session_id", session.ID),
		slog.String("business_id", businessID))

	r.metrics.SessionsStarted.Inc()

	if err := session.BeginPlanning(); err != nil {
		return err
	}

	plan, ds, fatal := r.prepare(ctx, session, query)
	if fatal != nil {
		logger.ErrorContext(ctx, "session failed before execution",
			slog.String("kind", string(fatal.Kind)),
			slog.String("error", fatal.Error()))
		r.metrics.SessionsFatal.Inc()
		if err := session.FailPlanning(); err != nil {
			logger.WarnContext(ctx, "state transition failed", slog.String("error", err.Error()))
		}
		if err := sink.Emit(ctx, NewFatalErrorEvent(fatal.Message)); err != nil {
			logger.WarnContext(ctx, "failed to emit fatal_error", slog.String("error", err.Error()))
		}
		return fatal
	}

	if err := session.BeginExecuting(); err != nil {
		return err
	}

	if err := sink.Emit(ctx, NewInitEvent(len(plan))); err != nil {
		return err
	}

	logger.InfoContext(ctx, "session executing", slog.Int("total_steps", len(plan)))

	eng := r.engines()
	working := ds

	for i, instruction := range plan {
		if err := r.yield(ctx); err != nil {
			logger.InfoContext(ctx, "session cancelled",
				slog.Int("steps_attempted", i))
			return err
		}

		if err := sink.Emit(ctx, NewStepStartEvent(i, instruction)); err != nil {
			return err
		}

		outcome := ExecuteStep(ctx, eng, working, instruction)
		r.metrics.StepsExecuted.Inc()

		var event Event
		if outcome.Failed() {
			r.metrics.StepErrors.Inc()
			logger.WarnContext(ctx, "step failed",
				slog.Int("step_index", i),
				slog.String("error", outcome.Err.Message))
			event = NewStepErrorEvent(i, instruction, outcome.Err.Message)
		} else {
			event = NewStepCompleteEvent(i, instruction, outcome.Result.Payload())
		}

		if err := sink.Emit(ctx, event); err != nil {
			return err
		}

		working = Advance(working, outcome)

		if outcome.Failed() && r.config.AbortOnError {
			logger.InfoContext(ctx, "aborting after failed step",
				slog.Int("step_index", i))
			break
		}
	}

	if err := sink.Emit(ctx, NewCompleteEvent()); err != nil {
		return err
	}

	if err := session.Complete(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "session completed",
		slog.Duration("duration", session.Duration()))
	return nil
}

// prepare runs the pre-execution phase: dataset fetch, plan generation,
// plan validation. Any failure here is fatal for the session.
func (r *Runner) prepare(ctx context.Context, session *Session, query string) (planner.Plan, dataset.Dataset, *SessionError) {
	ds, err := r.provider.Fetch(ctx, session.BusinessID)
	if err != nil {
		return nil, dataset.Dataset{}, NewTransportError("Failed to fetch dataset.", err)
	}
	if ds.Empty() {
		return nil, dataset.Dataset{}, NewPlanningError("No data found for given businessId.", nil)
	}

	raw, err := r.generator.Generate(ctx, query, ds.Profile())
	if err != nil {
		return nil, dataset.Dataset{}, NewTransportError("Error generating instructions from the planner.", err)
	}

	plan, err := planner.ParsePlan(raw)
	if err != nil {
		return nil, dataset.Dataset{}, NewPlanningError("Planner output could not be parsed into a plan.", err)
	}

	if err := session.PlanReady(plan); err != nil {
		return nil, dataset.Dataset{}, NewPlanningError("Session state error.", err)
	}

	return plan, ds, nil
}

// yield pauses briefly between events so a slow consumer can drain, and
// observes cancellation so no further step starts after disconnect.
func (r *Runner) yield(ctx context.Context) error {
	if r.config.StepYield <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(r.config.StepYield):
		return nil
	}
}
