package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat/internal/analysis"
	"datachat/internal/dataset"
	"datachat/internal/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fakeProvider struct {
	ds  dataset.Dataset
	err error
}

func (p *fakeProvider) Fetch(ctx context.Context, businessID string) (dataset.Dataset, error) {
	return p.ds, p.err
}

type fakeGenerator struct {
	raw string
	err error
}

func (g *fakeGenerator) Generate(ctx context.Context, query, profile string) (string, error) {
	return g.raw, g.err
}

type fakeEngine struct{}

func (e *fakeEngine) Execute(ctx context.Context, ds dataset.Dataset, instruction string) (engine.Result, error) {
	return engine.Result{Kind: engine.KindText, Text: "done"}, nil
}

type collectSink struct {
	events []analysis.Event
}

func (s *collectSink) Emit(ctx context.Context, event analysis.Event) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(provider dataset.Provider, generator *fakeGenerator) *AnalysisService {
	return NewAnalysisService(
		provider,
		generator,
		func() engine.Engine { return &fakeEngine{} },
		analysis.Config{},
		nil,
		nil,
		testLogger(),
	)
}

func TestAnalyzeEmitsFullStream(t *testing.T) {
	svc := newTestService(
		&fakeProvider{ds: dataset.New([]string{"amount"}, [][]any{{100}})},
		&fakeGenerator{raw: `["count the rows"]`},
	)
	sink := &collectSink{}

	err := svc.Analyze(context.Background(), "biz-1", "how many rows", sink)
	require.NoError(t, err)

	require.Len(t, sink.events, 4)
	assert.Equal(t, analysis.EventInit, sink.events[0].Type)
	assert.Equal(t, analysis.EventStepStart, sink.events[1].Type)
	assert.Equal(t, analysis.EventStepComplete, sink.events[2].Type)
	assert.Equal(t, analysis.EventComplete, sink.events[3].Type)
}

func TestAnalyzeFatalPlanningIsNotAnError(t *testing.T) {
	svc := newTestService(
		&fakeProvider{ds: dataset.New([]string{"amount"}, nil)}, // empty dataset
		&fakeGenerator{raw: `["x"]`},
	)
	sink := &collectSink{}

	err := svc.Analyze(context.Background(), "biz-1", "q", sink)
	require.NoError(t, err)

	require.Len(t, sink.events, 1)
	assert.Equal(t, analysis.EventFatalError, sink.events[0].Type)
}

func TestAnalyzePropagatesSinkFailure(t *testing.T) {
	svc := newTestService(
		&fakeProvider{ds: dataset.New([]string{"amount"}, [][]any{{1}})},
		&fakeGenerator{raw: `["x"]`},
	)
	broken := analysis.SinkFunc(func(ctx context.Context, event analysis.Event) error {
		return errors.New("client went away")
	})

	err := svc.Analyze(context.Background(), "biz-1", "q", broken)
	assert.Error(t, err)
}

func TestTeeSinksDeliversToAll(t *testing.T) {
	a, b := &collectSink{}, &collectSink{}
	sink := teeSinks(a, b)

	require.NoError(t, sink.Emit(context.Background(), analysis.NewCompleteEvent()))

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestTeeSinksFirstErrorWinsButAllReceive(t *testing.T) {
	errFirst := errors.New("first")
	failing := analysis.SinkFunc(func(ctx context.Context, event analysis.Event) error {
		return errFirst
	})
	b := &collectSink{}

	err := teeSinks(failing, b).Emit(context.Background(), analysis.NewCompleteEvent())

	assert.ErrorIs(t, err, errFirst)
	assert.Len(t, b.events, 1)
}

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

func TestHealthCheckHealthy(t *testing.T) {
	svc := NewHealthService("1.2.3", "", &fakePinger{}, nil, testLogger())

	status := svc.Check(context.Background())

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, map[string]any{"status": "ok"}, status.Services["clickhouse"])
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Second)
}

func TestHealthCheckDegradedOnPingFailure(t *testing.T) {
	svc := NewHealthService("1.2.3", "", &fakePinger{err: errors.New("dial tcp: refused")}, nil, testLogger())

	status := svc.Check(context.Background())

	assert.Equal(t, "degraded", status.Status)
}

func TestVersionInfo(t *testing.T) {
	svc := NewHealthService("1.2.3", "2025-06-01", nil, nil, testLogger())

	info := svc.Version()

	assert.Equal(t, "1.2.3", info.Version)
	assert.Equal(t, "2025-06-01", info.BuildTime)
	assert.NotEmpty(t, info.GoVersion)
}
