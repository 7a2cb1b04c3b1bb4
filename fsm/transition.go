package fsm

import "context"

// transitioner commits the pending transition of a machine. Called with the
// machine's lock held.
type transitioner interface {
	transition(ctx context.Context, m *Machine) error
}

type transitionerStruct struct{}

// transition completes a pending state change. The leave callback must have
// called Async on its event, or Fire must be committing synchronously.
func (t transitionerStruct) transition(ctx context.Context, m *Machine) error {
	pending := m.transition
	if pending == nil {
		return ErrNotInTransition
	}

	m.transition = nil
	pending(ctx)

	return nil
}
