// Package fsmtest provides testing utilities for machines built with package fsm.
package fsmtest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/amp-labs/amp-fsm/fsm"
	"github.com/stretchr/testify/require"
)

// Call records a single callback invocation.
type Call struct {
	Timestamp time.Time
	Name      string
	Event     string
	Src       string
	Dst       string
	Args      []any
}

// Recorder hands out callbacks that record the order in which they run.
// It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Callback returns a named callback that records itself and then runs the
// optional follow-up callbacks in order.
func (r *Recorder) Callback(name string, then ...fsm.Callback) fsm.CallbackDesc {
	return fsm.On(name, func(ctx context.Context, e *fsm.Event) {
		r.mu.Lock()
		r.calls = append(r.calls, Call{
			Timestamp: time.Now(),
			Name:      name,
			Event:     e.Event,
			Src:       e.Src,
			Dst:       e.Dst,
			Args:      e.Args,
		})
		r.mu.Unlock()

		for _, fn := range then {
			fn(ctx, e)
		}
	})
}

// Callbacks returns one recording callback per name, in the given order.
func (r *Recorder) Callbacks(names ...string) fsm.Callbacks {
	out := make(fsm.Callbacks, 0, len(names))
	for _, name := range names {
		out = append(out, r.Callback(name))
	}

	return out
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, len(r.calls))
	copy(out, r.calls)

	return out
}

// Names returns the names of the recorded callbacks in invocation order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.calls))
	for _, call := range r.calls {
		names = append(names, call.Name)
	}

	return names
}

// Reset forgets all recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = nil
}

// Cancel returns a callback that cancels the event with err.
func Cancel(err error) fsm.Callback {
	return func(_ context.Context, e *fsm.Event) {
		e.Cancel(err)
	}
}

// Async returns a callback that parks the transition.
func Async() fsm.Callback {
	return func(_ context.Context, e *fsm.Event) {
		e.Async()
	}
}

// RequireState fails the test unless m is in state.
func RequireState(t *testing.T, m *fsm.Machine, state string) {
	t.Helper()

	require.Equal(t, state, m.Current(), "unexpected machine state")
}

// RequireErrorAs fails the test unless err is (or wraps) an error of type T,
// and returns it.
//
//nolint:ireturn
func RequireErrorAs[T error](t *testing.T, err error) T {
	t.Helper()

	var target T

	require.Error(t, err)
	require.True(t, errors.As(err, &target), "expected %T, got %T: %v", target, err, err)

	return target
}
