package fsm

import (
	"fmt"
)

// Event is the transition context handed to every callback during a single
// Fire call. Callbacks report back to the machine by mutating it: Cancel stops
// the transition, Async parks it until CompleteTransition, and Err may be set
// directly to attach an error without canceling.
type Event struct {
	// Machine is the machine the event was fired on. Calling any of its methods
	// from inside a callback on the same goroutine deadlocks.
	Machine *Machine

	// Event is the name of the fired event.
	Event string

	// Src is the state before the transition.
	Src string

	// Dst is the state after the transition.
	Dst string

	// Args holds the arguments passed to Fire, in order.
	Args []any

	// Err is an optional error that callbacks can set.
	Err error

	canceled bool
	async    bool
}

// Cancel can be called in before_<EVENT> or leave_<STATE> callbacks to stop
// the transition before it happens. An explicit non-nil error replaces Err;
// calling Cancel without one keeps whatever Err already holds.
func (e *Event) Cancel(err ...error) {
	e.canceled = true

	if len(err) > 0 && err[0] != nil {
		e.Err = err[0]
	}
}

// Async can be called in leave_<STATE> callbacks to hold the transition in
// the old state until CompleteTransition is called.
func (e *Event) Async() {
	e.async = true
}

// Canceled reports whether a callback canceled the transition.
func (e *Event) Canceled() bool {
	return e.canceled
}

// IsAsync reports whether a callback requested an asynchronous transition.
func (e *Event) IsAsync() bool {
	return e.async
}

func (e *Event) String() string {
	return fmt.Sprintf("%s--|%s|-->%s (args=%v) (err=%v)", e.Src, e.Event, e.Dst, e.Args, e.Err)
}

// Arg returns the i-th argument of the event converted to T. A missing or
// mistyped argument yields an error the callback can pass to Cancel.
//
//nolint:ireturn
func Arg[T any](e *Event, i int) (T, error) {
	var zero T

	if i < 0 || i >= len(e.Args) {
		return zero, fmt.Errorf("%w: %d (event %s has %d args)", ErrArgIndex, i, e.Event, len(e.Args))
	}

	val, ok := e.Args[i].(T)
	if !ok {
		return zero, fmt.Errorf("%w: argument %d expected type %T, but received %T",
			ErrWrongArgType, i, zero, e.Args[i])
	}

	return val, nil
}
