package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidRange indicates an inconsistent begin/end/step combination.
	ErrInvalidRange = errors.New("dynamo: invalid time range")

	// ErrNotInitialized indicates stepping before the range or the initial state is set.
	ErrNotInitialized = errors.New("dynamo: history not initialized")

	// ErrStaleHistory indicates integrating into a history that still holds a previous run.
	ErrStaleHistory = errors.New("dynamo: history holds samples from a previous run")

	// ErrNonMonotonic indicates an appended sample that does not move forward in time.
	ErrNonMonotonic = errors.New("dynamo: sample time is not strictly monotonic")

	// ErrInsufficientHistory indicates too few samples between critical points to interpolate.
	ErrInsufficientHistory = errors.New("dynamo: not enough samples to interpolate")

	// ErrOutOfHistory indicates a query past the latest stored sample.
	ErrOutOfHistory = errors.New("dynamo: time is outside the stored history")

	// ErrNoiseShape indicates a differential whose noise does not match the integrator.
	ErrNoiseShape = errors.New("dynamo: noise shape not supported by integrator")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParameter indicates a parameter name the differential does not define.
	ErrUnknownParameter = errors.New("dynamo: unknown parameter")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates mismatched state dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")
)

// PreconditionError is the panic value raised when a history is queried in a
// way that can only come from a programming error, e.g. interpolating with
// too few samples. Integrators recover it and return it as an error.
type PreconditionError struct {
	Op   string
	Time float64
	Err  error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s at t=%g: %v", e.Op, e.Time, e.Err)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
