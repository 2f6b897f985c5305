package interval

import (
	"errors"
	"fmt"
)

// Error is a scheduler contract error.
//
// InvalidState and Busy indicate that the driver broke the single-threaded
// cooperative protocol and are returned to the caller. StructureWarning is
// logged and otherwise only collected. NotSameGraph is raised by spatial leaf
// actions and causes that leaf's step to be skipped for the tick.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op is the lifecycle or builder operation that failed.
	Op string

	// Interval is the name of the interval the operation targeted.
	Interval string

	// State is the interval state at the time of the failure, when relevant.
	State State

	// Message is a human-readable description.
	Message string
}

// ErrorCode categorizes scheduler errors.
type ErrorCode string

const (
	// ErrCodeInvalidState indicates a lifecycle call from a state that does
	// not permit it.
	ErrCodeInvalidState ErrorCode = "INVALID_STATE"

	// ErrCodeBusy indicates a structural mutation while a dispatch pass or
	// its pending queue is outstanding.
	ErrCodeBusy ErrorCode = "BUSY"

	// ErrCodeStructure indicates an unbalanced push/pop level structure.
	ErrCodeStructure ErrorCode = "STRUCTURE_WARNING"

	// ErrCodeNotSameGraph indicates two nodes used by a spatial action do not
	// share a hierarchy.
	ErrCodeNotSameGraph ErrorCode = "NOT_SAME_GRAPH"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Code == ErrCodeInvalidState:
		return fmt.Sprintf("%s: %s %q from state %s: %s", e.Code, e.Op, e.Interval, e.State, e.Message)
	case e.Interval != "" && e.Op != "":
		return fmt.Sprintf("%s: %s %q: %s", e.Code, e.Op, e.Interval, e.Message)
	case e.Interval != "":
		return fmt.Sprintf("%s: %q: %s", e.Code, e.Interval, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsInvalidState reports whether err is an invalid-state error.
func IsInvalidState(err error) bool { return hasCode(err, ErrCodeInvalidState) }

// IsBusy reports whether err is a busy error.
func IsBusy(err error) bool { return hasCode(err, ErrCodeBusy) }

// IsStructureWarning reports whether err is a structure warning.
func IsStructureWarning(err error) bool { return hasCode(err, ErrCodeStructure) }

// IsNotSameGraph reports whether err is a not-same-graph error.
func IsNotSameGraph(err error) bool { return hasCode(err, ErrCodeNotSameGraph) }

// NewInvalidStateError creates an error for an illegal lifecycle transition.
func NewInvalidStateError(name, op string, state State) *Error {
	return &Error{
		Code:     ErrCodeInvalidState,
		Op:       op,
		Interval: name,
		State:    state,
		Message:  "operation not permitted",
	}
}

// NewBusyError creates an error for a mutation attempted mid-dispatch.
func NewBusyError(name, op string) *Error {
	return &Error{
		Code:     ErrCodeBusy,
		Op:       op,
		Interval: name,
		Message:  "events are being dispatched or are still pending",
	}
}

// NewStructureWarning creates a warning for an inconsistent level structure.
func NewStructureWarning(name, message string) *Error {
	return &Error{
		Code:     ErrCodeStructure,
		Interval: name,
		Message:  message,
	}
}

// NewNotSameGraphError creates an error for two nodes without a common root.
func NewNotSameGraphError(name, node, other string) *Error {
	return &Error{
		Code:     ErrCodeNotSameGraph,
		Op:       "step",
		Interval: name,
		Message:  fmt.Sprintf("nodes %q and %q are not in the same graph", node, other),
	}
}
