// Package metrics declares the Prometheus collectors shared by the server
// and the worker. Both processes expose them through promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pulse"

var (
	// IngestDrops counts inbound events dropped by the normalizer, by reason.
	IngestDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "dropped_total",
		Help:      "Inbound events dropped before storage.",
	}, []string{"reason"})

	// IngestStored counts messages persisted, split by whether the row was new.
	IngestStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "stored_total",
		Help:      "Messages upserted into the store.",
	}, []string{"created"})

	Enrichments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "runs_total",
		Help:      "Enrichment attempts by outcome.",
	}, []string{"outcome"})

	// ParseRecoveries counts which stage recovered each field.
	// stage is one of strict, lenient, repair, fragments, failed.
	ParseRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "enrich",
		Name:      "parse_recoveries_total",
		Help:      "Structured parse results per field and recovery stage.",
	}, []string{"field", "stage"})

	CompletionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "completion",
		Name:      "duration_seconds",
		Help:      "Completion service call latency.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
	}, []string{"provider", "outcome"})

	BacklogBatch = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "backlog",
		Name:      "batch_size",
		Help:      "Messages selected per backlog sweep.",
		Buckets:   prometheus.LinearBuckets(0, 2, 11),
	})

	// HTTPPanics counts handler panics caught by the recovery middleware, by route.
	HTTPPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Handler panics recovered, by route.",
	}, []string{"route"})
)

// Outcome labels shared by enrichment and completion metrics.
const (
	OutcomeSuccess      = "success"
	OutcomeFailed       = "failed"
	OutcomeSkipped      = "skipped"
	OutcomeDeadLettered = "dead_lettered"
)
