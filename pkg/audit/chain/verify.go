package chain

import (
	"fmt"

	"argus-hq/argus/pkg/audit"
)

// VerificationResult reports the outcome of a chain walk.
type VerificationResult struct {
	// Valid is true when every passed entry verified.
	Valid bool `json:"valid"`

	// EntriesVerified counts entries that passed before the walk stopped.
	EntriesVerified int `json:"entries_verified"`

	// FirstInvalidSequence is the sequence of the first failing entry; nil
	// when Valid.
	FirstInvalidSequence *int64 `json:"first_invalid_sequence,omitempty"`

	// Error describes the first failure in human-readable form.
	Error string `json:"error,omitempty"`
}

// VerifyChain walks entries in the given order and checks, for every entry,
// that its content hash recomputes, and for every entry after the first, that
// its prev_hash equals the predecessor's content hash and that sequences are
// contiguous. An empty slice verifies trivially.
//
// The walk stops at the first failure; the result carries the offending
// sequence. Verification is pure over the slice, so any contiguous
// subsequence of a log can be checked in isolation.
func VerifyChain(entries []*audit.Entry) *VerificationResult {
	result := &VerificationResult{Valid: true}

	for i, e := range entries {
		if e == nil {
			return fail(result, -1, "nil entry in chain")
		}

		recomputed, err := ComputeContentHash(e, Algorithm(e.Chain.Algorithm))
		if err != nil {
			return fail(result, e.Chain.Sequence, fmt.Sprintf("entry %s: %v", e.ID, err))
		}
		if recomputed != e.Chain.ContentHash {
			return fail(result, e.Chain.Sequence,
				fmt.Sprintf("entry %s: content hash mismatch", e.ID))
		}

		if i == 0 {
			// A log's genesis entry must not claim a predecessor.
			if e.Chain.Sequence == 0 && e.Chain.PrevHash != "" {
				return fail(result, 0, fmt.Sprintf("entry %s: first entry carries a prev hash", e.ID))
			}
		} else {
			prev := entries[i-1]
			if e.Chain.Sequence != prev.Chain.Sequence+1 {
				return fail(result, e.Chain.Sequence,
					fmt.Sprintf("entry %s: sequence gap after %d", e.ID, prev.Chain.Sequence))
			}
			if e.Chain.PrevHash != prev.Chain.ContentHash {
				return fail(result, e.Chain.Sequence,
					fmt.Sprintf("entry %s: prev hash does not match predecessor", e.ID))
			}
		}

		result.EntriesVerified++
	}

	return result
}

// fail finalizes result with the first offending sequence.
func fail(result *VerificationResult, sequence int64, msg string) *VerificationResult {
	result.Valid = false
	result.FirstInvalidSequence = &sequence
	result.Error = msg
	return result
}
