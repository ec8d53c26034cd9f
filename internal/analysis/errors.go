package analysis

import "fmt"

// ErrorKind classifies session failures.
type ErrorKind string

const (
	// ErrKindPlanning covers terminal pre-execution failures: an empty
	// dataset for the business identifier, or plan generator output that
	// does not parse into a non-empty list of strings.
	ErrKindPlanning ErrorKind = "planning"
	// ErrKindTransport covers the dataset provider or plan generator
	// being unreachable before planning completes. Also terminal.
	ErrKindTransport ErrorKind = "transport"
	// ErrKindStep covers a single instruction failing. Never terminal;
	// recorded as a step_error event for that index only.
	ErrKindStep ErrorKind = "step"
)

// SessionError is a structured session failure: a kind plus a
// human-readable message safe to surface to the client.
type SessionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *SessionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *SessionError) Unwrap() error {
	return e.Err
}

// Fatal reports whether the error terminates the session before any step
// runs.
func (e *SessionError) Fatal() bool {
	return e.Kind == ErrKindPlanning || e.Kind == ErrKindTransport
}

// NewPlanningError creates a fatal planning error
func NewPlanningError(message string, err error) *SessionError {
	return &SessionError{Kind: ErrKindPlanning, Message: message, Err: err}
}

// NewTransportError creates a fatal transport error
func NewTransportError(message string, err error) *SessionError {
	return &SessionError{Kind: ErrKindTransport, Message: message, Err: err}
}

// NewStepError creates a non-fatal per-step error
func NewStepError(message string, err error) *SessionError {
	return &SessionError{Kind: ErrKindStep, Message: message, Err: err}
}
