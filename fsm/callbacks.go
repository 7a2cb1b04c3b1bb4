package fsm

import (
	"context"
	"strings"
)

// Callback is user code run around a transition. It communicates its outcome
// by mutating the event (Cancel, Async, Err) rather than returning a value.
//
// Callbacks run while the machine's lock is held. A callback must not call
// back into the same machine on the same goroutine; doing so deadlocks.
type Callback func(ctx context.Context, e *Event)

// CallbackDesc binds a callback to a name. The name decides when the callback
// runs:
//
//	before_<EVENT>  before the named event
//	before_event    before all events
//	leave_<STATE>   before leaving the named state
//	leave_state     before leaving all states
//	enter_<STATE>   after entering the named state
//	enter_state     after entering all states
//	after_<EVENT>   after the named event
//	after_event     after all events
//
// A bare state name is shorthand for enter_<STATE> and a bare event name for
// after_<EVENT>; when a name is both, the state wins. Names that match none of
// these forms, or that refer to unknown states or events, are ignored.
type CallbackDesc struct {
	Name string
	Fn   Callback
}

// Callbacks is an ordered list of named callbacks. When two entries resolve to
// the same phase and target, the later one wins.
type Callbacks []CallbackDesc

// On is shorthand for building a CallbackDesc.
func On(name string, fn Callback) CallbackDesc {
	return CallbackDesc{Name: name, Fn: fn}
}

// callbackPhase is the situation in which a callback runs.
type callbackPhase int

const (
	phaseNone callbackPhase = iota
	phaseBeforeEvent
	phaseLeaveState
	phaseEnterState
	phaseAfterEvent
)

func (p callbackPhase) String() string {
	switch p {
	case phaseBeforeEvent:
		return "before_event"
	case phaseLeaveState:
		return "leave_state"
	case phaseEnterState:
		return "enter_state"
	case phaseAfterEvent:
		return "after_event"
	case phaseNone:
		return "none"
	default:
		return "unknown"
	}
}

// cKey keys the callback table. An empty target means the callback applies
// to every event or state of its phase.
type cKey struct {
	target string
	phase  callbackPhase
}

// eKey keys the transition table.
type eKey struct {
	event string
	src   string
}

const (
	prefixBefore = "before_"
	prefixLeave  = "leave_"
	prefixEnter  = "enter_"
	prefixAfter  = "after_"

	wildcardEvent = "event"
	wildcardState = "state"
)

// classify resolves a callback name against the known states and events.
// The returned phase is phaseNone when the name cannot be classified.
func classify(name string, states, events map[string]struct{}) cKey {
	isState := func(s string) bool {
		_, ok := states[s]

		return ok
	}

	isEvent := func(s string) bool {
		_, ok := events[s]

		return ok
	}

	resolve := func(target, wildcard string, phase callbackPhase, known func(string) bool) cKey {
		if target == wildcard {
			return cKey{target: "", phase: phase}
		}

		if known(target) {
			return cKey{target: target, phase: phase}
		}

		return cKey{target: target, phase: phaseNone}
	}

	switch {
	case strings.HasPrefix(name, prefixBefore):
		return resolve(strings.TrimPrefix(name, prefixBefore), wildcardEvent, phaseBeforeEvent, isEvent)
	case strings.HasPrefix(name, prefixLeave):
		return resolve(strings.TrimPrefix(name, prefixLeave), wildcardState, phaseLeaveState, isState)
	case strings.HasPrefix(name, prefixEnter):
		return resolve(strings.TrimPrefix(name, prefixEnter), wildcardState, phaseEnterState, isState)
	case strings.HasPrefix(name, prefixAfter):
		return resolve(strings.TrimPrefix(name, prefixAfter), wildcardEvent, phaseAfterEvent, isEvent)
	case isState(name):
		return cKey{target: name, phase: phaseEnterState}
	case isEvent(name):
		return cKey{target: name, phase: phaseAfterEvent}
	default:
		return cKey{target: name, phase: phaseNone}
	}
}

// buildTables flattens the event descriptions into the transition table and
// classifies the callbacks. It has no side effects.
func buildTables(initial string, events Events, callbacks Callbacks) (
	map[eKey]string, map[cKey]Callback, map[string]struct{}, map[string]struct{},
) {
	transitions := make(map[eKey]string)
	states := map[string]struct{}{initial: {}}
	allEvents := make(map[string]struct{})

	for _, desc := range events {
		for _, src := range desc.Src {
			transitions[eKey{event: desc.Name, src: src}] = desc.Dst
			states[src] = struct{}{}
			states[desc.Dst] = struct{}{}
			allEvents[desc.Name] = struct{}{}
		}
	}

	table := make(map[cKey]Callback)

	for _, cb := range callbacks {
		if cb.Fn == nil {
			continue
		}

		key := classify(cb.Name, states, allEvents)
		if key.phase == phaseNone {
			continue
		}

		table[key] = cb.Fn
	}

	return transitions, table, states, allEvents
}
