package fsm

import (
	"errors"
	"fmt"
)

// Predefined error values.
var (
	// ErrNotInTransition is returned by CompleteTransition when no asynchronous
	// transition is pending.
	ErrNotInTransition = errors.New("transition inappropriate because no state change in progress")

	// ErrInternal signals that the pending completion vanished while a transition
	// was being committed. It should never be observed.
	ErrInternal = errors.New("internal error on state transition")

	// ErrWrongArgType is returned by Arg when an argument has an unexpected type.
	ErrWrongArgType = errors.New("wrong argument type")

	// ErrArgIndex is returned by Arg when the requested argument is missing.
	ErrArgIndex = errors.New("argument index out of range")

	// ErrDefinitionNameRequired indicates that a definition has no name.
	ErrDefinitionNameRequired = errors.New("definition name is required")
	// ErrInitialStateRequired indicates that a definition has no initial state.
	ErrInitialStateRequired = errors.New("initial state is required")
	// ErrEventNameRequired indicates that an event has no name.
	ErrEventNameRequired = errors.New("event name is required")
	// ErrEventDstRequired indicates that an event has no destination state.
	ErrEventDstRequired = errors.New("event destination is required")
)

// InTransitionError is returned by Fire when an asynchronous transition is
// still pending, and by SetState in the same situation (with an empty Event).
type InTransitionError struct {
	Event string
}

func (e InTransitionError) Error() string {
	return fmt.Sprintf("event %s inappropriate because previous transition did not complete", e.Event)
}

// InvalidEventError is returned by Fire when the event exists but cannot be
// fired from the current state.
type InvalidEventError struct {
	Event string
	State string
}

func (e InvalidEventError) Error() string {
	return fmt.Sprintf("event %s inappropriate in current state %s", e.Event, e.State)
}

// UnknownEventError is returned by Fire when the event is not defined.
type UnknownEventError struct {
	Event string
}

func (e UnknownEventError) Error() string {
	return fmt.Sprintf("event %s does not exist", e.Event)
}

// UnknownStateError is returned by SetState when the state is not part of the machine.
type UnknownStateError struct {
	State string
}

func (e UnknownStateError) Error() string {
	return fmt.Sprintf("state %s is not a valid state for the current machine", e.State)
}

// NoTransitionError is returned by Fire when the event's destination equals the
// current state. Err carries any error a callback attached without canceling.
type NoTransitionError struct {
	Err error
}

func (e NoTransitionError) Error() string {
	if e.Err != nil {
		return "no transition happened: " + e.Err.Error()
	}

	return "no transition happened"
}

func (e NoTransitionError) Unwrap() error {
	return e.Err
}

// CanceledError is returned by Fire when a before-event or leave-state
// callback canceled the transition.
type CanceledError struct {
	Err error
}

func (e CanceledError) Error() string {
	if e.Err != nil {
		return "transition canceled: " + e.Err.Error()
	}

	return "transition canceled"
}

func (e CanceledError) Unwrap() error {
	return e.Err
}

// AsyncError is returned by Fire when a leave-state callback asked for an
// asynchronous transition. It is not a failure: the machine now waits for
// CompleteTransition.
type AsyncError struct {
	Err error
}

func (e AsyncError) Error() string {
	if e.Err != nil {
		return "async transition started: " + e.Err.Error()
	}

	return "async transition started"
}

func (e AsyncError) Unwrap() error {
	return e.Err
}

// IsAsync reports whether err is (or wraps) an AsyncError.
func IsAsync(err error) bool {
	var asyncErr AsyncError

	return errors.As(err, &asyncErr)
}

// outcome maps a Fire/CompleteTransition result onto a low-cardinality label
// used by metrics, spans and logs.
func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}

	var (
		inTransition InTransitionError
		invalid      InvalidEventError
		unknownEvent UnknownEventError
		unknownState UnknownStateError
		noTransition NoTransitionError
		canceled     CanceledError
		async        AsyncError
	)

	switch {
	case errors.As(err, &async):
		return "async"
	case errors.As(err, &canceled):
		return "canceled"
	case errors.As(err, &noTransition):
		return "no_transition"
	case errors.As(err, &inTransition):
		return "in_transition"
	case errors.As(err, &invalid):
		return "invalid_event"
	case errors.As(err, &unknownEvent):
		return "unknown_event"
	case errors.As(err, &unknownState):
		return "unknown_state"
	case errors.Is(err, ErrNotInTransition):
		return "not_in_transition"
	default:
		return outcomeError
	}
}

// isFailure reports whether err should be treated as a failed call by
// tracing. Async starts and self-loops leave the machine consistent.
func isFailure(err error) bool {
	switch outcome(err) {
	case outcomeSuccess, "async", "no_transition":
		return false
	default:
		return true
	}
}
