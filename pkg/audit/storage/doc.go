// Package storage provides persistence backends for the audit log.
//
// Two implementations of audit.Storage ship here: MemoryStorage, for tests
// and embedded use, and SQLiteStorage for durable single-node deployments.
// Both enforce the conditional-append contract: an entry is persisted and
// the log head advanced only when the head still matches the state the
// writer read, so concurrent appends to one log serialize through retries
// instead of corrupting the chain. The SQLite backend additionally backs the
// discipline with a UNIQUE(log_id, sequence) constraint, so even a buggy
// writer cannot produce two entries at one sequence.
package storage
