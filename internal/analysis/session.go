package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"datachat/internal/planner"
)

// SessionState is the overall state of one analysis session.
type SessionState string

const (
	StateCreated    SessionState = "created"
	StatePlanning   SessionState = "planning"
	StatePlanFailed SessionState = "plan_failed"
	StatePlanReady  SessionState = "plan_ready"
	StateExecuting  SessionState = "executing"
	StateCompleted  SessionState = "completed"
)

// validTransitions encodes the session state machine. PLAN_FAILED and
// COMPLETED are terminal.
var validTransitions = map[SessionState][]SessionState{
	StateCreated:   {StatePlanning},
	StatePlanning:  {StatePlanFailed, StatePlanReady},
	StatePlanReady: {StateExecuting},
	StateExecuting: {StateCompleted},
}

// Session is one request's execution context, from plan validation
// through its terminal event. It is owned by a single request goroutine
// and discarded afterwards; only derived conversation messages are ever
// persisted.
type Session struct {
	mu sync.RWMutex

	ID         string
	BusinessID string
	Query      string
	StartTime  time.Time

	state SessionState
	plan  planner.Plan
}

// NewSession creates a session in the CREATED state.
func NewSession(businessID, query string) *Session {
	return &Session{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		Query:      query,
		StartTime:  time.Now(),
		state:      StateCreated,
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Plan returns the validated plan, nil before PLAN_READY.
func (s *Session) Plan() planner.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// transition moves the session to next, enforcing the state machine.
func (s *Session) transition(next SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, allowed := range validTransitions[s.state] {
		if allowed == next {
			s.state = next
			return nil
		}
	}
	return fmt.Errorf("invalid session transition %s -> %s", s.state, next)
}

// BeginPlanning moves CREATED -> PLANNING.
func (s *Session) BeginPlanning() error {
	return s.transition(StatePlanning)
}

// FailPlanning moves PLANNING -> PLAN_FAILED (terminal).
func (s *Session) FailPlanning() error {
	return s.transition(StatePlanFailed)
}

// PlanReady stores the validated plan and moves PLANNING -> PLAN_READY.
func (s *Session) PlanReady(plan planner.Plan) error {
	if err := s.transition(StatePlanReady); err != nil {
		return err
	}
	s.mu.Lock()
	s.plan = plan
	s.mu.Unlock()
	return nil
}

// BeginExecuting moves PLAN_READY -> EXECUTING.
func (s *Session) BeginExecuting() error {
	return s.transition(StateExecuting)
}

// Complete moves EXECUTING -> COMPLETED (terminal). The session reaches
// COMPLETED once all steps were attempted, irrespective of individual
// step outcomes.
func (s *Session) Complete() error {
	return s.transition(StateCompleted)
}

// Duration returns the elapsed time since the session started.
func (s *Session) Duration() time.Duration {
	return time.Since(s.StartTime)
}
