// Package metrics provides Prometheus instrumentation for the policy engine,
// the audit log, and the evidence collector.
//
// A single Collector owns the registry and the per-subsystem metric sets.
// Components receive only the metric set they need (for example the policy
// engine takes a *PolicyMetrics), so packages never depend on subsystems they
// do not record into. All metric sets tolerate being nil, which keeps
// instrumentation optional in tests and embedded use.
package metrics
