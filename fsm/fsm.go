// Package fsm provides an embeddable finite state machine with named states and
// events, callbacks around every transition, and transitions that can be held
// open until an external confirmation arrives.
//
// A machine is built once from an initial state, a list of event descriptions
// and an ordered list of named callbacks:
//
//	m := fsm.New("closed",
//		fsm.Events{
//			{Name: "open", Src: []string{"closed"}, Dst: "open"},
//			{Name: "close", Src: []string{"open"}, Dst: "closed"},
//		},
//		fsm.Callbacks{
//			fsm.On("enter_state", func(ctx context.Context, e *fsm.Event) {
//				fmt.Println("door is", e.Dst)
//			}),
//		},
//	)
//
//	err := m.Fire(ctx, "open")
//
// Callbacks run in this order for each Fire call, the specific callback of a
// phase always before the wildcard one:
//
//  1. before_<EVENT>, before_event
//  2. leave_<OLD_STATE>, leave_state
//  3. enter_<NEW_STATE>, enter_state
//  4. after_<EVENT>, after_event
//
// A before or leave callback may Cancel the transition; a leave callback may
// request Async, in which case Fire returns an AsyncError and the machine stays
// in the old state until CompleteTransition is called.
//
// Every operation on a Machine is serialized by one non-reentrant mutex that is
// also held while callbacks run. Callbacks must therefore never call back into
// the machine that invoked them from the same goroutine: the call would block
// forever. Hand such work to another goroutine instead.
package fsm

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"facette.io/natsort"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// EventDesc describes an event when building a machine. If the machine is in
// one of the Src states when the event fires, it ends up in Dst.
type EventDesc struct {
	Name string   `json:"name" yaml:"name"`
	Src  []string `json:"src"  yaml:"src"`
	Dst  string   `json:"dst"  yaml:"dst"`
}

// Events is a list of event descriptions.
type Events []EventDesc

// Transition is one flattened entry of the transition table.
type Transition struct {
	Event string
	Src   string
	Dst   string
}

// Machine is a finite state machine. It is safe for concurrent use.
type Machine struct {
	id   string
	name string

	initial string
	current string

	// transitions maps (event, src) to dst. Immutable after New.
	transitions map[eKey]string
	// callbacks maps (target, phase) to a callback. Immutable after New.
	callbacks map[cKey]Callback

	states map[string]struct{}
	events map[string]struct{}

	// transition is the pending completion of a transition. Its presence means
	// a transition is in progress.
	transition   func(ctx context.Context)
	transitioner transitioner

	mu sync.Mutex

	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  bool
	observer func(from, to string)
}

// New builds a machine from an initial state, event descriptions and named
// callbacks. See CallbackDesc for the callback naming rules.
//
// New never fails: duplicate (event, source) pairs keep the last destination,
// events without sources contribute nothing, and unclassifiable callback names
// are ignored.
func New(initial string, events Events, callbacks Callbacks, opts ...Option) *Machine {
	transitions, table, states, allEvents := buildTables(initial, events, callbacks)

	m := &Machine{
		id:           uuid.NewString(),
		initial:      initial,
		current:      initial,
		transitions:  transitions,
		callbacks:    table,
		states:       states,
		events:       allEvents,
		transitioner: transitionerStruct{},
		metrics:      true,
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = slog.Default()
	}

	m.name = sanitizeMachine(m.name)
	m.logger = m.logger.With("machine", m.name, "machine_id", m.id)

	return m
}

// ID returns the unique identifier assigned to the machine at construction.
func (m *Machine) ID() string {
	return m.id
}

// Name returns the machine name set with WithName.
func (m *Machine) Name() string {
	return m.name
}

// Initial returns the state the machine was built with.
func (m *Machine) Initial() string {
	return m.initial
}

// Current returns the current state.
func (m *Machine) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current
}

// Is reports whether state is the current state.
func (m *Machine) Is(state string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current == state
}

// Can reports whether event can fire in the current state. It is false while
// an asynchronous transition is pending.
func (m *Machine) Can(event string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.transitions[eKey{event: event, src: m.current}]

	return ok && m.transition == nil
}

// Cannot is the negation of Can.
func (m *Machine) Cannot(event string) bool {
	return !m.Can(event)
}

// AsyncPending reports whether a transition is waiting for CompleteTransition.
func (m *Machine) AsyncPending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.transition != nil
}

// AvailableTransitions returns the events that can fire from the current state,
// in natural sort order.
func (m *Machine) AvailableTransitions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var events []string

	for key := range m.transitions {
		if key.src == m.current {
			events = append(events, key.event)
		}
	}

	natsort.Sort(events)

	return events
}

// AllStates returns every state of the machine: the initial state plus every
// source and destination in the transition table, in natural sort order.
func (m *Machine) AllStates() []string {
	return sortedKeys(m.states)
}

// AllEvents returns every event name in the transition table, in natural sort order.
func (m *Machine) AllEvents() []string {
	return sortedKeys(m.events)
}

// Transitions returns the flattened transition table ordered by event, then source.
func (m *Machine) Transitions() []Transition {
	out := make([]Transition, 0, len(m.transitions))

	byEvent := make(map[string][]string)
	for key := range m.transitions {
		byEvent[key.event] = append(byEvent[key.event], key.src)
	}

	for _, event := range sortedKeys(m.events) {
		srcs := byEvent[event]
		natsort.Sort(srcs)

		for _, src := range srcs {
			out = append(out, Transition{Event: event, Src: src, Dst: m.transitions[eKey{event: event, src: src}]})
		}
	}

	return out
}

// Fire initiates a state transition with the named event. The optional args
// are handed to every callback through Event.Args.
//
// It returns nil when the transition completed, or one of:
//
//   - InTransitionError: an asynchronous transition is still pending
//   - InvalidEventError: the event cannot fire from the current state
//   - UnknownEventError: the event does not exist
//   - CanceledError: a before or leave callback canceled the transition
//   - NoTransitionError: the destination equals the current state
//   - AsyncError: a leave callback parked the transition; call CompleteTransition
//   - ErrInternal: should never happen
//
// When all callbacks succeed, Fire returns Event.Err, which is nil unless a
// callback set it without canceling.
func (m *Machine) Fire(ctx context.Context, event string, args ...any) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, span := m.startSpan(ctx, "fire", event)
	src, dst := m.current, ""

	defer func() {
		finishSpan(span, src, dst, err)
		m.recordFire(ctx, event, src, dst, err)
	}()

	if m.transition != nil {
		return InTransitionError{Event: event}
	}

	dst, ok := m.transitions[eKey{event: event, src: m.current}]
	if !ok {
		if _, known := m.events[event]; known {
			return InvalidEventError{Event: event, State: m.current}
		}

		return UnknownEventError{Event: event}
	}

	e := &Event{
		Machine: m,
		Event:   event,
		Src:     m.current,
		Dst:     dst,
		Args:    args,
	}

	err = m.beforeEventCallbacks(ctx, e)
	if err != nil {
		return err
	}

	if m.current == dst {
		m.afterEventCallbacks(ctx, e)

		return NoTransitionError{Err: e.Err}
	}

	// Set up the completion, run by the leave callbacks' caller or later by
	// CompleteTransition.
	m.transition = func(ctx context.Context) {
		from := m.current
		m.current = dst
		m.committed(from, dst)

		m.enterStateCallbacks(ctx, e)
		m.afterEventCallbacks(ctx, e)
	}

	err = m.leaveStateCallbacks(ctx, e)
	if err != nil {
		if e.canceled {
			m.transition = nil
		} else {
			m.setAsyncPending(true)
		}

		return err
	}

	err = m.transitioner.transition(ctx, m)
	if err != nil {
		m.logger.WarnContext(ctx, "Pending transition vanished", "event", event, "error", err)

		return ErrInternal
	}

	return e.Err
}

// CompleteTransition finishes a transition parked by a leave callback that
// called Event.Async. It runs the enter and after callbacks. It returns
// ErrNotInTransition when nothing is pending.
func (m *Machine) CompleteTransition(ctx context.Context) (err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx, span := m.startSpan(ctx, "complete", "")
	src := m.current

	defer func() {
		finishSpan(span, src, m.current, err)
	}()

	err = m.transitioner.transition(ctx, m)
	if err != nil {
		return err
	}

	m.setAsyncPending(false)
	m.logger.DebugContext(ctx, "Transition completed", "src", src, "dst", m.current)

	return nil
}

// SetState moves the machine to state without running any callback. It is
// meant for initialization and recovery, not normal operation.
func (m *Machine) SetState(state string) error {
	if _, ok := m.states[state]; !ok {
		return UnknownStateError{State: state}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.transition != nil {
		return InTransitionError{Event: ""}
	}

	m.logger.Debug("State set", "src", m.current, "dst", state)
	m.current = state

	return nil
}

// Reset drops any pending transition and returns the machine to its initial
// state without running callbacks.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debug("Machine reset", "src", m.current, "dst", m.initial, "pending", m.transition != nil)

	m.transition = nil
	m.current = m.initial
	m.setAsyncPending(false)
}

// call runs the callback registered for (target, phase), if any, and reports
// whether one ran.
func (m *Machine) call(ctx context.Context, phase callbackPhase, target string, e *Event) bool {
	fn, ok := m.callbacks[cKey{target: target, phase: phase}]
	if !ok {
		return false
	}

	start := time.Now()

	fn(ctx, e)

	if m.metrics {
		callbackDuration.WithLabelValues(m.name, phase.String()).Observe(time.Since(start).Seconds())
	}

	return true
}

// beforeEventCallbacks runs both before callbacks, then checks for cancellation.
func (m *Machine) beforeEventCallbacks(ctx context.Context, e *Event) error {
	m.call(ctx, phaseBeforeEvent, e.Event, e)
	m.call(ctx, phaseBeforeEvent, "", e)

	if e.canceled {
		return CanceledError{Err: e.Err}
	}

	return nil
}

// leaveStateCallbacks runs both leave callbacks, then checks for cancellation
// and async requests. Cancellation wins over async. Async only counts when a
// leave callback ran; a flag set in an earlier phase is ignored.
//
// A panicking leave callback drops the pending completion before the panic
// continues, so a recovered caller finds the machine out of transition.
func (m *Machine) leaveStateCallbacks(ctx context.Context, e *Event) error {
	defer func() {
		if r := recover(); r != nil {
			m.transition = nil

			panic(r)
		}
	}()

	specific := m.call(ctx, phaseLeaveState, m.current, e)
	wildcard := m.call(ctx, phaseLeaveState, "", e)

	if !specific && !wildcard {
		return nil
	}

	if e.canceled {
		return CanceledError{Err: e.Err}
	}

	if e.async {
		return AsyncError{Err: e.Err}
	}

	return nil
}

func (m *Machine) enterStateCallbacks(ctx context.Context, e *Event) {
	m.call(ctx, phaseEnterState, m.current, e)
	m.call(ctx, phaseEnterState, "", e)
}

func (m *Machine) afterEventCallbacks(ctx context.Context, e *Event) {
	m.call(ctx, phaseAfterEvent, e.Event, e)
	m.call(ctx, phaseAfterEvent, "", e)
}

// committed records a state change. Called with the lock held.
func (m *Machine) committed(from, to string) {
	if m.metrics {
		transitionsTotal.WithLabelValues(m.name, from, to).Inc()
	}

	if m.observer != nil {
		m.observer(from, to)
	}
}

func (m *Machine) setAsyncPending(pending bool) {
	if !m.metrics {
		return
	}

	if pending {
		asyncPending.WithLabelValues(m.name).Set(1)
	} else {
		asyncPending.WithLabelValues(m.name).Set(0)
	}
}

// recordFire logs and counts a Fire call.
func (m *Machine) recordFire(ctx context.Context, event, src, dst string, err error) {
	result := outcome(err)

	if m.metrics {
		label := event
		if _, known := m.events[event]; !known {
			label = "unknown"
		}

		fireTotal.WithLabelValues(m.name, sanitizeEvent(label), result).Inc()
	}

	m.logger.DebugContext(ctx, "Event fired",
		"event", event,
		"src", src,
		"dst", dst,
		"outcome", result,
		"error", err,
	)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}

	natsort.Sort(keys)

	return keys
}
