package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons used as the "reason" label of TimersRejected.
const (
	ReasonDelayExceedsHorizon = "delay_exceeds_horizon"
	ReasonInvalidDelay        = "invalid_delay"
	ReasonNilCallback         = "nil_callback"
	ReasonClosed              = "closed"
	ReasonUnknown             = "unknown"
)

// Registry holds all metric instances for timing wheel components.
type Registry struct {
	TimersScheduled *prometheus.CounterVec
	TimersFired     *prometheus.CounterVec
	TimersCancelled *prometheus.CounterVec
	TimersFailed    *prometheus.CounterVec
	TimersRejected  *prometheus.CounterVec
	TimersPending   *prometheus.GaugeVec
	TickDuration    *prometheus.HistogramVec
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace)
}

func newRegistry(reg prometheus.Registerer, namespace string) *Registry {
	factory := promauto.With(reg)
	labels := []string{"wheel_name"}

	return &Registry{
		TimersScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wheel",
				Name:      "timers_scheduled_total",
				Help:      "Total number of timers linked into the wheel",
			},
			labels,
		),

		TimersFired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wheel",
				Name:      "timers_fired_total",
				Help:      "Total number of timers whose callback ran",
			},
			labels,
		),

		TimersCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wheel",
				Name:      "timers_cancelled_total",
				Help:      "Total number of timers removed before firing",
			},
			labels,
		),

		TimersFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wheel",
				Name:      "timers_failed_total",
				Help:      "Total number of callbacks that returned an error or panicked",
			},
			labels,
		),

		TimersRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wheel",
				Name:      "timers_rejected_total",
				Help:      "Total number of schedule requests rejected",
			},
			[]string{"wheel_name", "reason"},
		),

		TimersPending: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "wheel",
				Name:      "timers_pending",
				Help:      "Number of timers waiting in the wheel",
			},
			labels,
		),

		TickDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "wheel",
				Name:      "tick_duration_seconds",
				Help:      "Time spent advancing the cursor and running expired callbacks",
				Buckets:   prometheus.DefBuckets,
			},
			labels,
		),
	}
}

// ObserveTick records one tick of the named wheel.
func (r *Registry) ObserveTick(name string, elapsed time.Duration, fired, failed, pending int) {
	if r == nil {
		return
	}
	r.TickDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	r.TimersFired.WithLabelValues(name).Add(float64(fired))
	r.TimersFailed.WithLabelValues(name).Add(float64(failed))
	r.TimersPending.WithLabelValues(name).Set(float64(pending))
}

// ObserveScheduled records a successful schedule.
func (r *Registry) ObserveScheduled(name string, pending int) {
	if r == nil {
		return
	}
	r.TimersScheduled.WithLabelValues(name).Inc()
	r.TimersPending.WithLabelValues(name).Set(float64(pending))
}

// ObserveCancelled records a successful cancellation.
func (r *Registry) ObserveCancelled(name string, pending int) {
	if r == nil {
		return
	}
	r.TimersCancelled.WithLabelValues(name).Inc()
	r.TimersPending.WithLabelValues(name).Set(float64(pending))
}

// ObserveRejected records a rejected schedule request.
func (r *Registry) ObserveRejected(name, reason string) {
	if r == nil {
		return
	}
	r.TimersRejected.WithLabelValues(name, reason).Inc()
}

// ObservePending overwrites the pending gauge of the named wheel.
func (r *Registry) ObservePending(name string, pending int) {
	if r == nil {
		return
	}
	r.TimersPending.WithLabelValues(name).Set(float64(pending))
}
