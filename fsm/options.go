package fsm

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a Machine.
type Option func(*Machine)

// WithName sets the name used for the machine in metrics, spans and logs.
// Names end up as metric labels, so keep them low-cardinality.
func WithName(name string) Option {
	return func(m *Machine) {
		m.name = name
	}
}

// WithLogger sets the logger for the machine. By default slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// WithTracer sets the tracer used for fire and complete spans. By default the
// global otel tracer provider is used.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Machine) {
		m.tracer = tracer
	}
}

// WithMetrics enables or disables prometheus metrics. Enabled by default.
func WithMetrics(enabled bool) Option {
	return func(m *Machine) {
		m.metrics = enabled
	}
}

// WithObserver sets a function invoked after every committed state change.
// It runs under the machine's lock, like any other callback.
func WithObserver(fn func(from, to string)) Option {
	return func(m *Machine) {
		m.observer = fn
	}
}
