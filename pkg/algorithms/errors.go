package algorithms

import (
	"errors"
	"fmt"
)

// Configuration errors, reported before any work starts
var (
	ErrInvalidIterations    = errors.New("iterations must be at least 1")
	ErrInvalidDampingFactor = errors.New("damping factor must be in (0, 1)")
	ErrInvalidConcurrency   = errors.New("concurrency must not be negative")
	ErrInvalidBatchSize     = errors.New("batch size must be positive")
	ErrInvalidQueueCapacity = errors.New("queue capacity must be positive")
	ErrInvalidTolerance     = errors.New("tolerance must not be negative")
	ErrInvalidSourceNode    = errors.New("source node out of range")
	ErrUnsupportedDirection = errors.New("unsupported direction")
)

// ErrStreamClosed is reported by a result stream closed before it was exhausted
var ErrStreamClosed = errors.New("result stream closed before exhaustion")

// AlgorithmError provides structured error information for failed computations.
type AlgorithmError struct {
	Op        string // Algorithm or operation (e.g., "PageRank.Compute")
	Phase     string // Phase that failed (e.g., "iterate", "synchronize")
	Iteration int    // 1-based iteration, 0 when not applicable
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *AlgorithmError) Error() string {
	switch {
	case e.Phase != "" && e.Iteration > 0:
		return fmt.Sprintf("%s: %s phase of iteration %d: %v", e.Op, e.Phase, e.Iteration, e.Cause)
	case e.Phase != "":
		return fmt.Sprintf("%s: %s phase: %v", e.Op, e.Phase, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	}
}

// Unwrap returns the underlying cause for error chain support.
func (e *AlgorithmError) Unwrap() error {
	return e.Cause
}
