package fsm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer creates a tracer backed by an in-memory exporter. The tracer
// is handed to the machine directly, so the global provider stays untouched.
func setupTestTracer(t *testing.T) (*tracetest.InMemoryExporter, Option) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})

	return exporter, WithTracer(tp.Tracer(tracerName))
}

func spanAttributes(span tracetest.SpanStub) map[string]any {
	attrs := make(map[string]any)
	for _, attr := range span.Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}

	return attrs
}

func TestFireSpans(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	exporter, tracer := setupTestTracer(t)

	m := New("start", Events{{Name: "run", Src: []string{"start"}, Dst: "end"}}, Callbacks{
		On("leave_start", func(_ context.Context, e *Event) { e.Async() }),
	}, WithName("traced"), WithMetrics(false), tracer)

	require.True(t, IsAsync(m.Fire(ctx, "run")))
	require.NoError(t, m.CompleteTransition(ctx))
	require.Error(t, m.Fire(ctx, "run"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 3)

	fire := spans[0]
	assert.Equal(t, "fsm.fire", fire.Name)
	assert.Equal(t, codes.Ok, fire.Status.Code)

	attrs := spanAttributes(fire)
	assert.Equal(t, "traced", attrs["fsm.machine"])
	assert.Equal(t, m.ID(), attrs["fsm.machine_id"])
	assert.Equal(t, "run", attrs["fsm.event"])
	assert.Equal(t, "start", attrs["fsm.src"])
	assert.Equal(t, "end", attrs["fsm.dst"])
	assert.Equal(t, "async", attrs["fsm.outcome"])

	complete := spans[1]
	assert.Equal(t, "fsm.complete", complete.Name)
	assert.Equal(t, codes.Ok, complete.Status.Code)
	assert.Equal(t, "end", spanAttributes(complete)["fsm.dst"])

	failed := spans[2]
	assert.Equal(t, "fsm.fire", failed.Name)
	assert.Equal(t, codes.Error, failed.Status.Code)
	assert.Equal(t, "invalid_event", spanAttributes(failed)["fsm.outcome"])
	assert.NotEmpty(t, failed.Events, "expected the error to be recorded on the span")
}
