package chain

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"time"

	"argus-hq/argus/pkg/audit"
)

// Algorithm names a supported hash algorithm. The name is recorded in each
// entry's chain block.
type Algorithm string

// Supported algorithms.
const (
	SHA256 Algorithm = "sha-256"
	SHA384 Algorithm = "sha-384"
	SHA512 Algorithm = "sha-512"
)

// DefaultAlgorithm is used when a log does not configure one.
const DefaultAlgorithm = SHA256

// Valid reports whether a is a supported algorithm.
func (a Algorithm) Valid() bool {
	switch a {
	case SHA256, SHA384, SHA512:
		return true
	}
	return false
}

// newHasher returns a fresh hash.Hash for the algorithm.
func newHasher(a Algorithm) (hash.Hash, error) {
	switch a {
	case SHA256:
		return sha256.New(), nil
	case SHA384:
		return sha512.New384(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", a)
	}
}

// entryContent mirrors audit.Entry minus the chain block. Field order is
// fixed; map values marshal with sorted keys, so the encoding is canonical.
// The timestamp is rendered as UTC RFC3339Nano text so that a storage round
// trip cannot change the hashed bytes.
type entryContent struct {
	ID        string                 `json:"id"`
	LogID     string                 `json:"log_id"`
	Timestamp string                 `json:"timestamp"`
	Actor     audit.EntryActor       `json:"actor"`
	Action    audit.EntryAction      `json:"action"`
	Resource  *audit.EntryResource   `json:"resource,omitempty"`
	Outcome   audit.EntryOutcome     `json:"outcome"`
	Context   audit.EntryContext     `json:"context"`
	Tags      []string               `json:"tags,omitempty"`
	HighRisk  bool                   `json:"high_risk"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// ComputeContentHash canonicalizes the entry's content fields and returns the
// hex digest under the given algorithm. The entry's own chain block never
// participates.
func ComputeContentHash(e *audit.Entry, algo Algorithm) (string, error) {
	if e == nil {
		return "", fmt.Errorf("cannot hash nil entry")
	}
	h, err := newHasher(algo)
	if err != nil {
		return "", err
	}

	content := entryContent{
		ID:        e.ID,
		LogID:     e.LogID,
		Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
		Actor:     e.Actor,
		Action:    e.Action,
		Resource:  e.Resource,
		Outcome:   e.Outcome,
		Context:   e.Context,
		Tags:      e.Tags,
		HighRisk:  e.HighRisk,
		Details:   e.Details,
	}

	data, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("canonicalize entry %s: %w", e.ID, err)
	}

	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
