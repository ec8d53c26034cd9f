// Package engine executes a single analysis instruction against a working
// dataset and classifies the outcome. One Engine instance is owned by one
// analysis session so conversational context carries across its steps.
package engine

import (
	"context"

	"datachat/internal/dataset"
)

// ResultKind tags the outcome type of one executed instruction.
type ResultKind string

const (
	KindTable  ResultKind = "dataframe"
	KindScalar ResultKind = "number"
	KindText   ResultKind = "string"
	KindChart  ResultKind = "chart"
)

// Result is the typed outcome of executing one instruction.
// Exactly one payload field matching Kind is populated.
type Result struct {
	Kind   ResultKind
	Table  dataset.Dataset
	Scalar float64
	Text   string
	Chart  string
}

// Engine runs one instruction against the current working dataset.
// Implementations are NOT safe for concurrent use; an Engine belongs to
// exactly one session and is discarded with it.
type Engine interface {
	Execute(ctx context.Context, ds dataset.Dataset, instruction string) (Result, error)
}

// Factory creates a fresh Engine for a new session.
type Factory func() Engine

// Payload returns the client-facing representation of the result for the
// step_complete event.
func (r Result) Payload() any {
	switch r.Kind {
	case KindTable:
		return map[string]any{
			"type":    string(KindTable),
			"columns": r.Table.Columns,
			"rows":    r.Table.Rows,
		}
	case KindScalar:
		return map[string]any{"type": string(KindScalar), "value": r.Scalar}
	case KindChart:
		return map[string]any{"type": string(KindChart), "value": r.Chart}
	default:
		return map[string]any{"type": string(KindText), "value": r.Text}
	}
}
