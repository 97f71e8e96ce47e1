// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/symmetrix-compute/sheaf-placement-engine/pkg/field"
)

var (
	// PlacementDecisions counts completed placement selections.
	PlacementDecisions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sheaf_placement_decisions_total",
		Help: "Number of placement selections performed.",
	})

	// PlacementErrors counts failed placement selections.
	PlacementErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sheaf_placement_errors_total",
		Help: "Number of placement selections that returned an error.",
	})

	// DiagnosticCycles counts completed diagnostic cycles.
	DiagnosticCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sheaf_diagnostic_cycles_total",
		Help: "Number of completed cohomology diagnostic cycles.",
	})

	// DiagnosticDimension is the dimension published by the last
	// diagnostic cycle: 0 balanced, 1 imbalanced.
	DiagnosticDimension = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sheaf_diagnostic_dimension",
		Help: "Cohomology dimension from the last diagnostic cycle.",
	})

	// AllocatedUnits is the number of registered processing units.
	AllocatedUnits = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sheaf_registered_units",
		Help: "Number of registered processing units.",
	})
)

// RegisterFieldStats exposes an engine's cumulative counters as Prometheus
// counters. Call at most once per process for a given registerer.
func RegisterFieldStats(reg prometheus.Registerer, eng *field.Engine, codec *field.Codec) error {
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "sheaf_field_operations_total",
			Help: "Number of finite-field operations performed.",
		}, func() float64 { return float64(eng.Stats().Operations) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "sheaf_field_cache_hits_total",
			Help: "Power cache hits.",
		}, func() float64 { return float64(eng.Stats().CacheHits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "sheaf_field_cache_misses_total",
			Help: "Power cache misses.",
		}, func() float64 { return float64(eng.Stats().CacheMisses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "sheaf_crt_reconstructions_total",
			Help: "CRT reconstructions performed.",
		}, func() float64 { return float64(codec.Stats().Reconstructions) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
