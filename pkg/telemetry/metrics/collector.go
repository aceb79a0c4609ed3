package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics. It owns the
// registry and the per-subsystem metric sets, and hands each component only
// the set it records into.
type Collector struct {
	namespace string
	subsystem string
	registry  *prometheus.Registry

	policyMetrics   *PolicyMetrics
	auditMetrics    *AuditMetrics
	evidenceMetrics *EvidenceMetrics

	// Cardinality tracking across all label sets
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector. If registry is nil, a fresh
// registry is created. Empty namespace/subsystem fall back to "argus"/"core".
func NewCollector(namespace, subsystem string, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "argus"
	}
	if subsystem == "" {
		subsystem = "core"
	}

	c := &Collector{
		namespace:          namespace,
		subsystem:          subsystem,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	c.policyMetrics = NewPolicyMetrics(namespace, subsystem, registry)
	c.auditMetrics = NewAuditMetrics(namespace, subsystem, registry)
	c.evidenceMetrics = NewEvidenceMetrics(namespace, subsystem, registry)

	return c
}

// Policy returns the policy evaluation metric set.
func (c *Collector) Policy() *PolicyMetrics {
	return c.policyMetrics
}

// Audit returns the audit log metric set.
func (c *Collector) Audit() *AuditMetrics {
	return c.auditMetrics
}

// Evidence returns the evidence collection metric set.
func (c *Collector) Evidence() *EvidenceMetrics {
	return c.evidenceMetrics
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// AllowLabelSet reports whether a label combination stays within the
// configured cardinality budget. Callers should fold rejected values into a
// catch-all label such as "other".
func (c *Collector) AllowLabelSet(labelSet string) bool {
	return c.cardinalityLimiter.Allow(labelSet)
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
