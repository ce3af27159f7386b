package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for time-stepping operations.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrInvalidConfig indicates a configuration rejected before any slab is attempted.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrDimensionMismatch indicates mismatched state/system dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrStepCollapse indicates the stabilized step fell below the minimum step.
	ErrStepCollapse = errors.New("dynamo: step size collapsed below minimum")

	// ErrTooManyRetries indicates too many consecutive slab rejections.
	ErrTooManyRetries = errors.New("dynamo: too many consecutive slab rejections")

	// ErrFinished indicates a step was requested after the end time was reached.
	ErrFinished = errors.New("dynamo: end time already reached")

	// ErrContextCanceled indicates the run was interrupted.
	ErrContextCanceled = errors.New("dynamo: run canceled by context")
)

// StepError wraps a terminal error with time-stepping context.
type StepError struct {
	Time     float64
	Length   float64
	Attempts int
	Wrapped  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("t=%.6g (k=%.3e, %d attempts): %v", e.Time, e.Length, e.Attempts, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
