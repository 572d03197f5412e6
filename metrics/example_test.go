package metrics_test

import (
	"fmt"
	"time"

	"github.com/lonng/timewheel/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example shows how a driver reports wheel activity.
func Example() {
	// Use a separate registry to avoid conflicts with the default one
	reg := prometheus.NewRegistry()
	m := metrics.Config{Enabled: true, Registry: reg}.Build()

	m.ObserveScheduled("sessions", 1)
	m.ObserveScheduled("sessions", 2)
	m.ObserveTick("sessions", 2*time.Millisecond, 2, 0, 0)

	fmt.Println("fired:", testutil.ToFloat64(m.TimersFired.WithLabelValues("sessions")))
	fmt.Println("pending:", testutil.ToFloat64(m.TimersPending.WithLabelValues("sessions")))

	// Output:
	// fired: 2
	// pending: 0
}
