package analysis

import "context"

// EventType identifies a stream event kind.
type EventType string

const (
	EventInit         EventType = "init"
	EventStepStart    EventType = "step_start"
	EventStepComplete EventType = "step_complete"
	EventStepError    EventType = "step_error"
	EventComplete     EventType = "complete"
	EventFatalError   EventType = "fatal_error"
)

// Event is one immutable record in a session's outbound stream. Events
// are appended in execution order and never reordered or batched.
type Event struct {
	Type        EventType `json:"type"`
	TotalSteps  int       `json:"total_steps,omitempty"`
	StepIndex   *int      `json:"step_index,omitempty"`
	Instruction string    `json:"instruction,omitempty"`
	Response    any       `json:"response,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Sink receives session events in order. Implementations must flush each
// event individually so the stream stays incremental; they are called
// from a single goroutine per session.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

// Emit implements Sink
func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// NewInitEvent announces the validated plan size before any step runs.
func NewInitEvent(totalSteps int) Event {
	return Event{Type: EventInit, TotalSteps: totalSteps}
}

// NewStepStartEvent marks the start of step i.
func NewStepStartEvent(i int, instruction string) Event {
	return Event{Type: EventStepStart, StepIndex: &i, Instruction: instruction}
}

// NewStepCompleteEvent carries the result of a successful step.
func NewStepCompleteEvent(i int, instruction string, response any) Event {
	return Event{Type: EventStepComplete, StepIndex: &i, Instruction: instruction, Response: response}
}

// NewStepErrorEvent records a failed step without ending the session.
func NewStepErrorEvent(i int, instruction, errMsg string) Event {
	return Event{Type: EventStepError, StepIndex: &i, Instruction: instruction, Error: errMsg}
}

// NewCompleteEvent is the terminal event of a session that attempted all
// its steps.
func NewCompleteEvent() Event {
	return Event{Type: EventComplete}
}

// NewFatalErrorEvent is the only event of a session that failed before
// init.
func NewFatalErrorEvent(message string) Event {
	return Event{Type: EventFatalError, Error: message}
}
