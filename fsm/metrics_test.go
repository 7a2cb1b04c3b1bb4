package fsm

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetrics verifies that fire, transition and async metrics are recorded.
// Each subtest uses its own machine name so the global vectors don't collide.
func TestMetrics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	events := Events{
		{Name: "open", Src: []string{"closed"}, Dst: "open"},
		{Name: "close", Src: []string{"open"}, Dst: "closed"},
	}

	t.Run("fire and transitions", func(t *testing.T) {
		t.Parallel()

		m := New("closed", events, nil, WithName("metrics_fire"))

		require.NoError(t, m.Fire(ctx, "open"))
		require.Error(t, m.Fire(ctx, "open"))
		require.Error(t, m.Fire(ctx, "lock"))

		assert.InDelta(t, 1, testutil.ToFloat64(fireTotal.WithLabelValues("metrics_fire", "open", "success")), 0)
		assert.InDelta(t, 1,
			testutil.ToFloat64(fireTotal.WithLabelValues("metrics_fire", "open", "invalid_event")), 0)
		assert.InDelta(t, 1,
			testutil.ToFloat64(fireTotal.WithLabelValues("metrics_fire", "unknown", "unknown_event")), 0)
		assert.InDelta(t, 1,
			testutil.ToFloat64(transitionsTotal.WithLabelValues("metrics_fire", "closed", "open")), 0)
	})

	t.Run("async pending gauge", func(t *testing.T) {
		t.Parallel()

		m := New("closed", events, Callbacks{
			On("leave_closed", func(_ context.Context, e *Event) { e.Async() }),
		}, WithName("metrics_async"))

		require.True(t, IsAsync(m.Fire(ctx, "open")))
		assert.InDelta(t, 1, testutil.ToFloat64(asyncPending.WithLabelValues("metrics_async")), 0)

		require.NoError(t, m.CompleteTransition(ctx))
		assert.InDelta(t, 0, testutil.ToFloat64(asyncPending.WithLabelValues("metrics_async")), 0)
		assert.InDelta(t, 1,
			testutil.ToFloat64(transitionsTotal.WithLabelValues("metrics_async", "closed", "open")), 0)
	})

	t.Run("callback duration", func(t *testing.T) {
		t.Parallel()

		m := New("closed", events, Callbacks{
			On("enter_state", func(context.Context, *Event) {}),
		}, WithName("metrics_callbacks"))

		require.NoError(t, m.Fire(ctx, "open"))
		require.NoError(t, m.Fire(ctx, "close"))

		count := testutil.CollectAndCount(callbackDuration, "fsm_callback_duration_seconds")
		assert.Positive(t, count)
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		m := New("closed", events, nil, WithName("metrics_disabled"), WithMetrics(false))

		require.NoError(t, m.Fire(ctx, "open"))
		assert.InDelta(t, 0, testutil.ToFloat64(fireTotal.WithLabelValues("metrics_disabled", "open", "success")), 0)
	})
}

func TestSanitization(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "unnamed", sanitizeMachine(""))
	assert.Equal(t, "door", sanitizeMachine("door"))
	assert.Equal(t, "none", sanitizeEvent(""))
	assert.Equal(t, "open", sanitizeEvent("open"))
	assert.Equal(t, "unnamed", New("a", nil, nil, WithMetrics(false)).Name())
}
