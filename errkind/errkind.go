// Package errkind defines the typed error kinds raised across the tensor and
// graph packages. Every fallible operation in this module returns one of
// these rather than panicking, except for invariants the caller cannot
// violate (an already-validated shape, an already-registered node).
package errkind

import (
	"fmt"

	"github.com/pkg/errors"
)

// ShapeError reports a broadcast incompatibility, a matmul dimension
// mismatch, or an out-of-range axis/index.
type ShapeError struct {
	cause error
}

// NewShapeError wraps msg (formatted like fmt.Sprintf) as a ShapeError.
func NewShapeError(format string, args ...any) *ShapeError {
	return &ShapeError{cause: errors.Errorf(format, args...)}
}

func (e *ShapeError) Error() string { return "shape error: " + e.cause.Error() }
func (e *ShapeError) Unwrap() error { return e.cause }

// GraphShapeError reports a cycle or a disconnected reference discovered
// while sorting a graph.
type GraphShapeError struct {
	cause error
}

// NewGraphShapeError wraps msg as a GraphShapeError.
func NewGraphShapeError(format string, args ...any) *GraphShapeError {
	return &GraphShapeError{cause: errors.Errorf(format, args...)}
}

func (e *GraphShapeError) Error() string { return "graph shape error: " + e.cause.Error() }
func (e *GraphShapeError) Unwrap() error { return e.cause }

// StateError reports an operation invoked outside the state machine state
// that permits it (e.g. Gradient called before Compute).
type StateError struct {
	cause error
}

// NewStateError wraps msg as a StateError.
func NewStateError(format string, args ...any) *StateError {
	return &StateError{cause: errors.Errorf(format, args...)}
}

func (e *StateError) Error() string { return "state error: " + e.cause.Error() }
func (e *StateError) Unwrap() error { return e.cause }

// ArgumentError reports an empty input list or wrong arity.
type ArgumentError struct {
	cause error
}

// NewArgumentError wraps msg as an ArgumentError.
func NewArgumentError(format string, args ...any) *ArgumentError {
	return &ArgumentError{cause: errors.Errorf(format, args...)}
}

func (e *ArgumentError) Error() string { return "argument error: " + e.cause.Error() }
func (e *ArgumentError) Unwrap() error { return e.cause }

// BackendError reports a device allocation or kernel failure in the BLAS
// facade.
type BackendError struct {
	cause error
}

// NewBackendError wraps an underlying backend failure as a BackendError.
func NewBackendError(cause error) *BackendError {
	return &BackendError{cause: errors.WithStack(cause)}
}

func (e *BackendError) Error() string { return "backend error: " + e.cause.Error() }
func (e *BackendError) Unwrap() error { return e.cause }

// ExecutionError wraps a task failure that surfaced while draining the
// worker pool during a Compute or Gradient call. The original per-node
// error and the id of the node whose task failed are preserved.
type ExecutionError struct {
	NodeID int64
	cause  error
}

// NewExecutionError wraps cause, produced by the node identified by nodeID,
// as an ExecutionError.
func NewExecutionError(nodeID int64, cause error) *ExecutionError {
	return &ExecutionError{NodeID: nodeID, cause: errors.WithStack(cause)}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution error: node %d: %v", e.NodeID, e.cause)
}
func (e *ExecutionError) Unwrap() error { return e.cause }
