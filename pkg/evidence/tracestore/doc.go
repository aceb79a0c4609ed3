// Package tracestore holds agent decision traces and exposes them as an
// evidence source.
//
// A decision trace is the record an autonomous agent leaves behind for one
// decision: what it attempted, what the outcome was, and how confident it
// was. Traces live outside the audit chain; the evidence collector consumes
// them through TraceSource with an agent-specific relevance formula.
package tracestore
