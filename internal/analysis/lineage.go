package analysis

import (
	"datachat/internal/dataset"
	"datachat/internal/engine"
)

// Advance threads the working dataset across steps: a table outcome
// replaces the dataset wholesale, any other outcome (scalar, text,
// chart, error) leaves it unchanged. This is the single point where the
// session's current dataset moves forward, so what was shown for step i
// is exactly what step i+1 operates on.
func Advance(current dataset.Dataset, outcome StepOutcome) dataset.Dataset {
	if outcome.Failed() {
		return current
	}
	if outcome.Result.Kind == engine.KindTable {
		return outcome.Result.Table
	}
	return current
}
