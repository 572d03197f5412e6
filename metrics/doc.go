// Package metrics provides Prometheus instrumentation for timing wheels.
//
// A Registry groups the collectors a scheduler updates on every operation:
// counters for scheduled, fired, cancelled, failed and rejected timers, a
// gauge of pending timers and a histogram of tick latency. All collectors
// carry a wheel_name label so several wheels can share one registry.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
//	s, _ := scheduler.New("sessions", time.Minute, 100*time.Millisecond, scheduler.WithMetrics(m))
package metrics
