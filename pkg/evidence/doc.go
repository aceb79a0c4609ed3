// Package evidence collects compliance evidence from audit logs and other
// registered sources.
//
// Given a tenant, a time range, and a compliance control (or a raw audit
// category), the Collector resolves which audit action categories are
// relevant, queries every registered source, scores each surfaced item for
// relevance, optionally verifies the hash chain of audit-backed evidence,
// and merges everything into one result sorted by descending relevance.
//
// Evidence is derived, not stored: every collection recomputes scores and
// verification from the underlying entries. A failing source is logged and
// skipped; it never aborts the whole collection.
package evidence
