package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is the namespace used when Config.Namespace is empty.
const DefaultNamespace = "timewheel"

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registerer to use. If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace overrides the default "timewheel" namespace for metrics.
	Namespace string
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
	}
}

// Build returns the Registry described by the config, or nil when disabled.
func (c Config) Build() *Registry {
	if !c.Enabled {
		return nil
	}
	reg := c.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := c.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return newRegistry(reg, ns)
}
