package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("Observe", func(t *testing.T) {
		r := NewRegistry(prometheus.NewRegistry())

		r.ObserveScheduled("w", 1)
		r.ObserveScheduled("w", 2)
		r.ObserveCancelled("w", 1)
		r.ObserveRejected("w", ReasonClosed)
		r.ObserveTick("w", time.Millisecond, 3, 1, 0)

		assert.Equal(t, float64(2), testutil.ToFloat64(r.TimersScheduled.WithLabelValues("w")))
		assert.Equal(t, float64(1), testutil.ToFloat64(r.TimersCancelled.WithLabelValues("w")))
		assert.Equal(t, float64(1), testutil.ToFloat64(r.TimersRejected.WithLabelValues("w", ReasonClosed)))
		assert.Equal(t, float64(3), testutil.ToFloat64(r.TimersFired.WithLabelValues("w")))
		assert.Equal(t, float64(1), testutil.ToFloat64(r.TimersFailed.WithLabelValues("w")))
		assert.Equal(t, float64(0), testutil.ToFloat64(r.TimersPending.WithLabelValues("w")))

		r.ObservePending("w", 7)
		assert.Equal(t, float64(7), testutil.ToFloat64(r.TimersPending.WithLabelValues("w")))
	})

	t.Run("Wheels are labelled separately", func(t *testing.T) {
		r := NewRegistry(prometheus.NewRegistry())
		r.ObserveScheduled("a", 1)
		r.ObserveScheduled("b", 1)
		r.ObserveScheduled("b", 2)

		assert.Equal(t, float64(1), testutil.ToFloat64(r.TimersScheduled.WithLabelValues("a")))
		assert.Equal(t, float64(2), testutil.ToFloat64(r.TimersScheduled.WithLabelValues("b")))
	})

	t.Run("Nil registry", func(t *testing.T) {
		var r *Registry
		assert.NotPanics(t, func() {
			r.ObserveScheduled("w", 1)
			r.ObserveCancelled("w", 0)
			r.ObserveRejected("w", ReasonUnknown)
			r.ObserveTick("w", time.Millisecond, 1, 0, 0)
			r.ObservePending("w", 0)
		})
	})
}

func TestConfig(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		assert.Nil(t, Config{}.Build())
	})

	t.Run("Default", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.True(t, cfg.Enabled)
		assert.Equal(t, DefaultNamespace, cfg.Namespace)
	})

	t.Run("Custom namespace", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		r := Config{Enabled: true, Registry: reg, Namespace: "custom"}.Build()
		require.NotNil(t, r)
		r.ObserveScheduled("w", 1)

		expected := `
# HELP custom_wheel_timers_scheduled_total Total number of timers linked into the wheel
# TYPE custom_wheel_timers_scheduled_total counter
custom_wheel_timers_scheduled_total{wheel_name="w"} 1
`
		assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "custom_wheel_timers_scheduled_total"))
	})

	t.Run("Duplicate registration panics", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		NewRegistry(reg)
		assert.Panics(t, func() {
			NewRegistry(reg)
		})
	})
}
