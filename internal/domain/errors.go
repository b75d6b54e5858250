package domain

import "fmt"

// ValidationError is a local, pre-network failure: a missing required field,
// malformed time text, hours over the cap, and so on. It always blocks
// submission and never changes state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidStateTransitionError is returned when an action is illegal for the
// task's current state (e.g. approving an already-approved task).
type InvalidStateTransitionError struct {
	TaskID int
	From   Status
	Action string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("task %d: cannot %s while %s", e.TaskID, e.Action, e.From)
}

// NotFoundError is returned when a referenced task, worker, or client no
// longer exists.
type NotFoundError struct {
	Kind string // "tarea", "trabajador", "cliente", "direccion"
	ID   int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// RequestFailure is a network or backend error surfaced to the caller
// verbatim. The caller's form state is preserved so the user can resubmit.
type RequestFailure struct {
	StatusCode int
	Message    string
}

func (e *RequestFailure) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// VersionConflictError is returned when a mutation carries a stale task
// version: another edit won the race and the caller must re-fetch.
type VersionConflictError struct {
	TaskID  int
	Version int
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("task %d: stale version %d, task was modified concurrently", e.TaskID, e.Version)
}
