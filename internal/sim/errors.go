package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSystem indicates mismatched slice lengths or non-finite values.
	ErrInvalidSystem = errors.New("sim: invalid system")

	// ErrInvalidConfig indicates a run configuration that cannot be stepped.
	ErrInvalidConfig = errors.New("sim: invalid config")

	// ErrUnstable indicates a position or velocity became NaN or Inf.
	ErrUnstable = errors.New("sim: simulation unstable (state diverged)")
)

// SimulationError wraps an error with the step it happened on.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("sim: step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
