package core

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the engine's failure taxonomy. Callers classify
// failures with errors.Is; packages wrap these with situational detail.
var (
	// ErrUnknownTool means the model requested a tool name with no
	// registered capability.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrRecursionLimitExceeded means a turn exceeded the configured
	// tool-call depth and was terminated.
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")
	// ErrSandboxViolation means a workspace path resolved outside the
	// iso's sandbox root. No I/O is performed for such paths.
	ErrSandboxViolation = errors.New("sandbox violation")
	// ErrInvalidTaskTransition means a task status change would regress
	// or leave a terminal status.
	ErrInvalidTaskTransition = errors.New("invalid task transition")
	// ErrIsoBusy means a turn was rejected because the iso is already
	// processing one and the busy policy is "reject".
	ErrIsoBusy = errors.New("iso busy")
	// ErrNotFound is returned by stores when a record id does not exist.
	ErrNotFound = errors.New("not found")
)

// AdapterError reports a failed BuildMessages call. Unless the adapter is
// configured best-effort, assembly aborts the whole turn.
type AdapterError struct {
	Adapter string
	Err     error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %q failed: %v", e.Adapter, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *AdapterError) Unwrap() error { return e.Err }

// TurnError is the structured failure returned for a fatal turn. It carries
// the partial transcript accumulated before the failure so callers never see
// a silent drop.
type TurnError struct {
	Phase      string
	Transcript []Message
	Err        error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	return fmt.Sprintf("turn failed in phase %s: %v", e.Phase, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *TurnError) Unwrap() error { return e.Err }
