package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SimulatorMetrics contains Prometheus metrics for the fleet simulator.
type SimulatorMetrics struct {
	ReadingsGenerated  *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	FleetSize          prometheus.Gauge
}

// NewSimulatorMetrics creates and registers fleet simulator metrics.
func NewSimulatorMetrics(namespace string) *SimulatorMetrics {
	m := &SimulatorMetrics{
		ReadingsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "readings_generated_total",
				Help:      "Total number of synthetic readings generated",
			},
			[]string{"kind"}, // kind: meter, vehicle
		),
		GenerationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "generation_failures_total",
				Help:      "Total number of failed reading generations or publishes",
			},
			[]string{"kind", "reason"},
		),
		GenerationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "generation_duration_seconds",
				Help:      "Duration of reading generation and publish",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		FleetSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "fleet_size",
				Help:      "Number of simulated vehicle/meter pairs",
			},
		),
	}

	MustRegister(
		m.ReadingsGenerated,
		m.GenerationFailures,
		m.GenerationDuration,
		m.FleetSize,
	)

	return m
}
