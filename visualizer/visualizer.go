// Package visualizer generates diagrams from fsm machines and definitions.
//
//nolint:varnamelen // short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/amp-labs/amp-fsm/fsm"
)

// Visualizer errors.
var (
	ErrMachineNil    = errors.New("machine cannot be nil")
	ErrDefinitionNil = errors.New("definition cannot be nil")
)

// plainID matches state names Mermaid accepts as bare identifiers.
var plainID = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// edge is a (src, dst) pair with every event that connects them.
type edge struct {
	src    string
	dst    string
	events []string
}

// edges groups the machine's transitions by (src, dst), keeping the
// machine's deterministic ordering.
func edges(m *fsm.Machine) []edge {
	var (
		out   []edge
		index = make(map[[2]string]int)
	)

	for _, t := range m.Transitions() {
		key := [2]string{t.Src, t.Dst}

		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, edge{src: t.Src, dst: t.Dst})
		}

		out[i].events = append(out[i].events, t.Event)
	}

	return out
}

func highlights(m *fsm.Machine, opts Options) map[string]bool {
	highlighted := make(map[string]bool)
	for _, state := range opts.HighlightPath {
		highlighted[state] = true
	}

	if opts.HighlightCurrent {
		highlighted[m.Current()] = true
	}

	return highlighted
}

// GenerateMermaid converts a machine to a Mermaid state diagram.
func GenerateMermaid(m *fsm.Machine) (string, error) {
	return GenerateMermaidWithOptions(m, DefaultOptions())
}

// GenerateMermaidFromDefinition builds a machine from a definition and renders it.
func GenerateMermaidFromDefinition(def *fsm.Definition, opts Options) (string, error) {
	if def == nil {
		return "", ErrDefinitionNil
	}

	return GenerateMermaidWithOptions(def.Build(nil, fsm.WithMetrics(false)), opts)
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
func GenerateMermaidWithOptions(m *fsm.Machine, opts Options) (string, error) {
	if m == nil {
		return "", ErrMachineNil
	}

	var sb strings.Builder

	states := m.AllStates()
	ids := mermaidIDs(states)

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")
	sb.WriteString(fmt.Sprintf("    direction %s\n", direction(opts.Direction)))

	for _, state := range states {
		if ids[state] != state {
			sb.WriteString(fmt.Sprintf("    state %q as %s\n", state, ids[state]))
		}
	}

	sb.WriteString(fmt.Sprintf("    [*] --> %s\n", ids[m.Initial()]))

	for _, e := range edges(m) {
		label := ""
		if opts.ShowEvents {
			label = ": " + strings.Join(e.events, ", ")
		}

		sb.WriteString(fmt.Sprintf("    %s --> %s%s\n", ids[e.src], ids[e.dst], label))
	}

	highlighted := highlights(m, opts)
	for _, state := range states {
		if highlighted[state] {
			sb.WriteString(fmt.Sprintf("    class %s highlighted\n", ids[state]))
		}
	}

	sb.WriteString("\n")
	sb.WriteString("    classDef highlighted fill:#fff9c4,stroke:#f57f17,stroke-width:3px\n")
	sb.WriteString("```\n")

	return sb.String(), nil
}

// GenerateGraphviz converts a machine to a Graphviz DOT digraph.
func GenerateGraphviz(m *fsm.Machine) (string, error) {
	return GenerateGraphvizWithOptions(m, DefaultOptions())
}

// GenerateGraphvizWithOptions generates a Graphviz diagram with custom options.
func GenerateGraphvizWithOptions(m *fsm.Machine, opts Options) (string, error) {
	if m == nil {
		return "", ErrMachineNil
	}

	var sb strings.Builder

	sb.WriteString("digraph fsm {\n")

	sb.WriteString(fmt.Sprintf("    rankdir=%s;\n", direction(opts.Direction)))

	for _, e := range edges(m) {
		if opts.ShowEvents {
			sb.WriteString(fmt.Sprintf("    %q -> %q [ label = %q ];\n", e.src, e.dst, strings.Join(e.events, ", ")))
		} else {
			sb.WriteString(fmt.Sprintf("    %q -> %q;\n", e.src, e.dst))
		}
	}

	sb.WriteString("\n")

	highlighted := highlights(m, opts)
	for _, state := range m.AllStates() {
		switch {
		case highlighted[state]:
			sb.WriteString(fmt.Sprintf("    %q [ style=\"filled\" fillcolor=\"#fff9c4\" ];\n", state))
		case state == m.Initial():
			sb.WriteString(fmt.Sprintf("    %q [ shape=\"doublecircle\" ];\n", state))
		default:
			sb.WriteString(fmt.Sprintf("    %q;\n", state))
		}
	}

	sb.WriteString("}\n")

	return sb.String(), nil
}

// direction normalizes a layout direction to one understood by both Mermaid
// and Graphviz. TD is an alias for TB; anything unknown becomes TB.
func direction(dir string) string {
	switch d := strings.ToUpper(dir); d {
	case "TD", "TB":
		return "TB"
	case "BT", "LR", "RL":
		return d
	default:
		return "TB"
	}
}

// mermaidIDs maps each state to a Mermaid identifier. Plain identifiers are
// used as is; any other name gets a generated alias declared with
// `state "name" as id`.
func mermaidIDs(states []string) map[string]string {
	taken := make(map[string]bool, len(states))
	for _, state := range states {
		if plainID.MatchString(state) {
			taken[state] = true
		}
	}

	ids := make(map[string]string, len(states))
	next := 0

	for _, state := range states {
		if plainID.MatchString(state) {
			ids[state] = state

			continue
		}

		id := fmt.Sprintf("state_%d", next)
		for taken[id] {
			next++
			id = fmt.Sprintf("state_%d", next)
		}

		next++
		taken[id] = true
		ids[state] = id
	}

	return ids
}
