// Package chain computes and verifies the hash links that make an audit log
// tamper-evident.
//
// ComputeContentHash canonicalizes an entry's content fields (everything
// except the chain block) into deterministic JSON and digests it (SHA-256
// by default, SHA-384/512 as alternates; the algorithm is recorded per
// entry). VerifyChain walks an ordered slice of entries and checks both that
// each content hash recomputes and that each entry's prev_hash equals its
// predecessor's content hash.
//
// Both operations are pure functions over their arguments: no storage, no
// network. Verification therefore works on any contiguous subsequence of a
// log, with the caveat that a clean subsequence only proves internal
// consistency; full-log tamper detection requires the unfiltered sequence.
package chain
