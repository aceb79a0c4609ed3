// Package log implements the append-only audit log on top of a storage
// backend.
//
// A Log binds one tenant+scope log instance to a storage implementation and
// owns the append discipline: read the head, stamp identity and sequence,
// link to the previous hash, write conditionally, retry on conflict. The
// conditional write makes concurrent appends safe even across processes;
// an in-process mutex alone would not survive multiple writers.
//
// Appends to different logs are fully independent. Sealing is terminal:
// a sealed log rejects every further append and there is no unseal.
package log
