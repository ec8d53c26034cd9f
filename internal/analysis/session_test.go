package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datachat/internal/planner"
)

func TestNewSession(t *testing.T) {
	s := NewSession("biz-1", "show sales")

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "biz-1", s.BusinessID)
	assert.Equal(t, "show sales", s.Query)
	assert.Equal(t, StateCreated, s.State())
	assert.Nil(t, s.Plan())
	assert.False(t, s.StartTime.IsZero())
}

func TestSessionHappyPath(t *testing.T) {
	s := NewSession("biz-1", "q")

	require.NoError(t, s.BeginPlanning())
	assert.Equal(t, StatePlanning, s.State())

	plan := planner.Plan{"a", "b"}
	require.NoError(t, s.PlanReady(plan))
	assert.Equal(t, StatePlanReady, s.State())
	assert.Equal(t, plan, s.Plan())

	require.NoError(t, s.BeginExecuting())
	assert.Equal(t, StateExecuting, s.State())

	require.NoError(t, s.Complete())
	assert.Equal(t, StateCompleted, s.State())
}

func TestSessionPlanFailedIsTerminal(t *testing.T) {
	s := NewSession("biz-1", "q")
	require.NoError(t, s.BeginPlanning())
	require.NoError(t, s.FailPlanning())
	assert.Equal(t, StatePlanFailed, s.State())

	assert.Error(t, s.PlanReady(planner.Plan{"a"}))
	assert.Error(t, s.BeginExecuting())
	assert.Error(t, s.Complete())
}

func TestSessionInvalidTransitions(t *testing.T) {
	s := NewSession("biz-1", "q")

	// Cannot skip planning
	assert.Error(t, s.BeginExecuting())
	assert.Error(t, s.Complete())
	assert.Error(t, s.PlanReady(planner.Plan{"a"}))

	require.NoError(t, s.BeginPlanning())
	// Cannot re-enter planning
	assert.Error(t, s.BeginPlanning())
}

func TestSessionCompletedIsTerminal(t *testing.T) {
	s := NewSession("biz-1", "q")
	require.NoError(t, s.BeginPlanning())
	require.NoError(t, s.PlanReady(planner.Plan{"a"}))
	require.NoError(t, s.BeginExecuting())
	require.NoError(t, s.Complete())

	assert.Error(t, s.BeginPlanning())
	assert.Error(t, s.Complete())
}
