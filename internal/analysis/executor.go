package analysis

import (
	"context"
	"fmt"

	"datachat/internal/dataset"
	"datachat/internal/engine"
)

// StepOutcome is the tagged result of executing one instruction: either
// a typed engine result or a step error. Exactly one of the two is set.
type StepOutcome struct {
	Result engine.Result
	Err    *SessionError
}

// Failed reports whether the step produced an error outcome.
func (o StepOutcome) Failed() bool {
	return o.Err != nil
}

// ExecuteStep runs one instruction against the working dataset through
// the session's engine. Any fault raised by the engine, including a
// panic, is converted into an error outcome; nothing propagates out of
// this function. It never touches the caller's working dataset.
func ExecuteStep(ctx context.Context, eng engine.Engine, ds dataset.Dataset, instruction string) (outcome StepOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = StepOutcome{
				Err: NewStepError(fmt.Sprintf("step panicked: %v", r), nil),
			}
		}
	}()

	result, err := eng.Execute(ctx, ds, instruction)
	if err != nil {
		return StepOutcome{Err: NewStepError(err.Error(), err)}
	}
	return StepOutcome{Result: result}
}
