// Package audit defines the data model and collaborator interfaces of the
// immutable audit log.
//
// An audit log is an append-only, hash-chained sequence of entries scoped to
// one tenant. Every entry carries a chain block linking it to its predecessor
// by content hash; the chain subpackage computes and verifies those links,
// the log subpackage implements the append/seal/query semantics, and the
// storage subpackage provides the persistence backends.
//
// The central invariant: entries are created exactly once at append time and
// are never updated or deleted. Per-log metadata (head pointer, entry count,
// sealed flag) is the only mutable state, and only the append and seal paths
// touch it.
package audit
