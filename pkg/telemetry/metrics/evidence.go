package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EvidenceMetrics tracks metrics related to evidence collection.
//
// Metrics:
//   - argus_evidence_collections_total: Collection runs by control and status
//   - argus_evidence_collection_duration_seconds: End-to-end collection latency
//   - argus_evidence_entries_scored_total: Entries scored during collection
//   - argus_evidence_source_failures_total: Sources that failed during a run
type EvidenceMetrics struct {
	collectionsTotal   *prometheus.CounterVec
	collectionDuration *prometheus.HistogramVec
	entriesScored      *prometheus.CounterVec
	sourceFailures     *prometheus.CounterVec
}

// NewEvidenceMetrics creates and registers evidence metrics with the provided registry.
func NewEvidenceMetrics(namespace, subsystem string, registry *prometheus.Registry) *EvidenceMetrics {
	em := &EvidenceMetrics{
		collectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evidence_collections_total",
				Help:      "Total number of evidence collection runs",
			},
			[]string{"control_id", "status"},
		),

		collectionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evidence_collection_duration_seconds",
				Help:      "Duration of evidence collection runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to 8s
			},
			[]string{"control_id"},
		),

		entriesScored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evidence_entries_scored_total",
				Help:      "Total number of audit entries scored for relevance",
			},
			[]string{"control_id"},
		),

		sourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "evidence_source_failures_total",
				Help:      "Total number of evidence source failures",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		em.collectionsTotal,
		em.collectionDuration,
		em.entriesScored,
		em.sourceFailures,
	)

	return em
}

// RecordCollection records one collection run.
// Status is "complete" or "partial" (some sources failed).
func (em *EvidenceMetrics) RecordCollection(controlID, status string, duration time.Duration, scored int) {
	if em == nil {
		return
	}
	em.collectionsTotal.WithLabelValues(controlID, status).Inc()
	em.collectionDuration.WithLabelValues(controlID).Observe(duration.Seconds())
	em.entriesScored.WithLabelValues(controlID).Add(float64(scored))
}

// RecordSourceFailure records one failed evidence source.
func (em *EvidenceMetrics) RecordSourceFailure(source string) {
	if em == nil {
		return
	}
	em.sourceFailures.WithLabelValues(source).Inc()
}
