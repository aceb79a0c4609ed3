package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PolicyMetrics tracks metrics related to policy evaluation.
//
// Metrics:
//   - argus_policy_evaluations_total: Total policy evaluations by rule and effect
//   - argus_policy_evaluation_duration_seconds: Policy evaluation duration
//   - argus_policy_hits_total: Number of times a policy rule matched
//   - argus_policy_misses_total: Number of times a policy rule did not match
type PolicyMetrics struct {
	// Total policy evaluations
	evaluationsTotal *prometheus.CounterVec

	// Policy evaluation duration histogram
	evaluationDuration *prometheus.HistogramVec

	// Policy rule hits (rule matched)
	hitsTotal *prometheus.CounterVec

	// Policy rule misses (rule did not match)
	missesTotal *prometheus.CounterVec
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(namespace, subsystem string, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "policy_evaluations_total",
				Help:      "Total number of policy evaluations",
			},
			[]string{"rule_id", "effect"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "policy_evaluation_duration_seconds",
				Help:      "Duration of policy evaluation in seconds",
				// Evaluations are in-memory closure calls (< 10ms)
				Buckets: prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"rule_id"},
		),

		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "policy_hits_total",
				Help:      "Total number of policy rule matches",
			},
			[]string{"rule_id"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "policy_misses_total",
				Help:      "Total number of policy rule misses",
			},
			[]string{"rule_id"},
		),
	}

	registry.MustRegister(
		pm.evaluationsTotal,
		pm.evaluationDuration,
		pm.hitsTotal,
		pm.missesTotal,
	)

	return pm
}

// RecordEvaluation records a completed policy evaluation.
//
// Parameters:
//   - ruleID: Identifier of the decisive rule ("default" when no rule matched)
//   - effect: Resulting effect ("allow", "deny", "require_approval", ...)
//   - duration: Time taken to evaluate the request
func (pm *PolicyMetrics) RecordEvaluation(ruleID, effect string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.evaluationsTotal.WithLabelValues(ruleID, effect).Inc()
	pm.evaluationDuration.WithLabelValues(ruleID).Observe(duration.Seconds())
}

// RecordHit records that a policy rule's conditions were satisfied.
func (pm *PolicyMetrics) RecordHit(ruleID string) {
	if pm == nil {
		return
	}
	pm.hitsTotal.WithLabelValues(ruleID).Inc()
}

// RecordMiss records that a policy rule's conditions were not satisfied.
func (pm *PolicyMetrics) RecordMiss(ruleID string) {
	if pm == nil {
		return
	}
	pm.missesTotal.WithLabelValues(ruleID).Inc()
}
