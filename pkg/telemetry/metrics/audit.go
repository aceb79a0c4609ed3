package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks metrics related to the audit log.
//
// Metrics:
//   - argus_audit_appends_total: Entries appended, by log and outcome status
//   - argus_audit_append_conflicts_total: Optimistic-concurrency retries during append
//   - argus_audit_append_duration_seconds: Append latency including storage
//   - argus_audit_chain_verifications_total: Chain verifications by result
//   - argus_audit_log_entries: Current entry count per log
type AuditMetrics struct {
	appendsTotal       *prometheus.CounterVec
	appendConflicts    *prometheus.CounterVec
	appendDuration     *prometheus.HistogramVec
	verificationsTotal *prometheus.CounterVec
	logEntries         *prometheus.GaugeVec
}

// NewAuditMetrics creates and registers audit metrics with the provided registry.
func NewAuditMetrics(namespace, subsystem string, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		appendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "audit_appends_total",
				Help:      "Total number of audit entries appended",
			},
			[]string{"log_id", "status"},
		),

		appendConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "audit_append_conflicts_total",
				Help:      "Total number of sequence conflicts retried during append",
			},
			[]string{"log_id"},
		),

		appendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "audit_append_duration_seconds",
				Help:      "Duration of audit append including storage in seconds",
				// Appends hit storage, so buckets run wider than evaluation
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to 1.6s
			},
			[]string{"log_id"},
		),

		verificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "audit_chain_verifications_total",
				Help:      "Total number of hash chain verifications",
			},
			[]string{"log_id", "result"},
		),

		logEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "audit_log_entries",
				Help:      "Current number of entries per audit log",
			},
			[]string{"log_id"},
		),
	}

	registry.MustRegister(
		am.appendsTotal,
		am.appendConflicts,
		am.appendDuration,
		am.verificationsTotal,
		am.logEntries,
	)

	return am
}

// RecordAppend records a successful append and the resulting entry count.
func (am *AuditMetrics) RecordAppend(logID, status string, duration time.Duration, entryCount int64) {
	if am == nil {
		return
	}
	am.appendsTotal.WithLabelValues(logID, status).Inc()
	am.appendDuration.WithLabelValues(logID).Observe(duration.Seconds())
	am.logEntries.WithLabelValues(logID).Set(float64(entryCount))
}

// RecordAppendConflict records one optimistic-concurrency retry.
func (am *AuditMetrics) RecordAppendConflict(logID string) {
	if am == nil {
		return
	}
	am.appendConflicts.WithLabelValues(logID).Inc()
}

// RecordVerification records the result of a chain verification.
// The result label is "valid" or "invalid".
func (am *AuditMetrics) RecordVerification(logID string, valid bool) {
	if am == nil {
		return
	}
	result := "valid"
	if !valid {
		result = "invalid"
	}
	am.verificationsTotal.WithLabelValues(logID, result).Inc()
}
