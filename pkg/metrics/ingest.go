package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestionMetrics contains Prometheus metrics for the ingestion pipeline
// and the analytics engine.
type IngestionMetrics struct {
	ReadingsIngested  *prometheus.CounterVec
	IngestDuration    *prometheus.HistogramVec
	BatchSize         *prometheus.HistogramVec
	StatusLookups     *prometheus.CounterVec
	AnalyticsRequests *prometheus.CounterVec
	AnalyticsDuration *prometheus.HistogramVec
}

// NewIngestionMetrics creates and registers ingestion metrics.
func NewIngestionMetrics(namespace string) *IngestionMetrics {
	m := &IngestionMetrics{
		ReadingsIngested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "readings_total",
				Help:      "Total number of telemetry readings ingested",
			},
			[]string{"kind", "outcome"}, // kind: meter, vehicle; outcome: success, error
		),
		IngestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "duration_seconds",
				Help:      "Duration of ingestion transactions",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "mode"}, // mode: single, batch
		),
		BatchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "batch_size",
				Help:      "Number of readings per batch submission",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"kind"},
		),
		StatusLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "status",
				Name:      "lookups_total",
				Help:      "Total number of device status lookups",
			},
			[]string{"kind", "outcome"}, // outcome: success, not_found, error
		),
		AnalyticsRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analytics",
				Name:      "requests_total",
				Help:      "Total number of analytics computations",
			},
			[]string{"operation", "outcome"},
		),
		AnalyticsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analytics",
				Name:      "duration_seconds",
				Help:      "Duration of analytics computations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	MustRegister(
		m.ReadingsIngested,
		m.IngestDuration,
		m.BatchSize,
		m.StatusLookups,
		m.AnalyticsRequests,
		m.AnalyticsDuration,
	)

	return m
}
