package controller

import (
	"errors"
	"fmt"
	"time"
)

// PreconditionError reports a server that is not in an acceptable starting
// state for the requested operation. It is never retried.
type PreconditionError struct {
	Op     string
	Server string
	Volume string
	State  string
	Want   []string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s %s/%s: state %q not in %v",
		e.Op, e.Server, e.Volume, e.State, e.Want)
}

// ConvergenceError reports a state machine that settled outside the goal
// set, or a domain verification that failed after convergence.
type ConvergenceError struct {
	Op     string
	Server string
	Volume string
	State  string
	Reason string
}

// Error implements the error interface.
func (e *ConvergenceError) Error() string {
	msg := fmt.Sprintf("%s %s/%s: %s", e.Op, e.Server, e.Volume, e.Reason)
	if e.State != "" {
		msg += fmt.Sprintf(" (state %q)", e.State)
	}
	return msg
}

// TimeoutError reports a polling loop that exceeded its bound while the
// observed condition was still transient.
type TimeoutError struct {
	Op     string
	Server string
	Volume string
	Waited time.Duration
	Last   string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s/%s: timed out after %v, last %q",
		e.Op, e.Server, e.Volume, e.Waited, e.Last)
}

// TransientRemoteError wraps a single failed remote call. Only the
// del-restored workflow retries it; everywhere else it propagates.
type TransientRemoteError struct {
	Server string
	Err    error
}

// Error implements the error interface.
func (e *TransientRemoteError) Error() string {
	return fmt.Sprintf("remote call to %s: %v", e.Server, e.Err)
}

// Unwrap returns the underlying error.
func (e *TransientRemoteError) Unwrap() error {
	return e.Err
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var e *PreconditionError
	return errors.As(err, &e)
}

// IsConvergence reports whether err is a ConvergenceError.
func IsConvergence(err error) bool {
	var e *ConvergenceError
	return errors.As(err, &e)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var e *TimeoutError
	return errors.As(err, &e)
}

// IsTransient reports whether err is a TransientRemoteError.
func IsTransient(err error) bool {
	var e *TransientRemoteError
	return errors.As(err, &e)
}
