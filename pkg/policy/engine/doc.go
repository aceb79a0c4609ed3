// Package engine compiles policy documents into callable rule sets and
// evaluates requests against them.
//
// Documents are compiled once at load time: every condition (and explicit
// condition group) becomes a closure bound to the condition library, so
// evaluation never re-parses anything. Loading and unloading documents takes
// a write lock; evaluations take a read lock and therefore always see either
// the old or the new rule set, never a half-updated one. Evaluation itself is
// stateless and side-effect-free, so any number of evaluations may run in
// parallel against the same compiled set.
//
// Two evaluation semantics are fixed by design:
//
//   - Deny is absolute. The first matching deny rule terminates evaluation
//     regardless of any continue_on_match flag.
//   - Require-approval accumulates. Matching require_approval rules merge
//     their approval and notification requirements across the whole scan
//     (unless StopOnFirstMatch is configured).
//
// DryRun evaluates every enabled rule with no short-circuiting and no side
// effects, returning per-condition explanations; it exists so policy authors
// can preview consequences before activation.
package engine
