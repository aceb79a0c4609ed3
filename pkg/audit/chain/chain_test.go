package chain

import (
	"strings"
	"testing"
	"time"

	"argus-hq/argus/pkg/audit"
)

func testEntry(seq int64, prevHash string) *audit.Entry {
	ts := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second)
	return &audit.Entry{
		ID:        audit.NewEntryID(ts, seq),
		LogID:     "log-acme-prod-a1b2c3d4",
		Timestamp: ts,
		Actor:     audit.EntryActor{Type: audit.ActorUser, ID: "alice"},
		Action:    audit.EntryAction{Category: audit.CategoryPolicy, Type: "policy_evaluated"},
		Outcome:   audit.EntryOutcome{Status: audit.OutcomeSuccess},
		Context:   audit.EntryContext{TenantID: "acme"},
		Details:   map[string]interface{}{"effect": "allow", "rules": float64(3)},
		Chain: audit.ChainBlock{
			Sequence:   seq,
			PrevHash:   prevHash,
			Algorithm:  string(SHA256),
			ComputedAt: ts,
		},
	}
}

// buildChain links n entries the way the append path would.
func buildChain(t *testing.T, n int) []*audit.Entry {
	t.Helper()
	entries := make([]*audit.Entry, 0, n)
	prevHash := ""
	for seq := int64(0); seq < int64(n); seq++ {
		e := testEntry(seq, prevHash)
		hash, err := ComputeContentHash(e, SHA256)
		if err != nil {
			t.Fatalf("ComputeContentHash(seq=%d) error: %v", seq, err)
		}
		e.Chain.ContentHash = hash
		prevHash = hash
		entries = append(entries, e)
	}
	return entries
}

func TestAlgorithmValid(t *testing.T) {
	for _, a := range []Algorithm{SHA256, SHA384, SHA512} {
		if !a.Valid() {
			t.Errorf("%q reported invalid", a)
		}
	}
	if Algorithm("md5").Valid() {
		t.Error("md5 reported valid")
	}
}

func TestComputeContentHashDeterministic(t *testing.T) {
	e := testEntry(0, "")

	first, err := ComputeContentHash(e, SHA256)
	if err != nil {
		t.Fatalf("ComputeContentHash() error: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("sha-256 digest length = %d, want 64 hex chars", len(first))
	}

	for i := 0; i < 5; i++ {
		again, err := ComputeContentHash(e, SHA256)
		if err != nil {
			t.Fatalf("ComputeContentHash() error: %v", err)
		}
		if again != first {
			t.Fatalf("hash diverged on recompute: %s != %s", again, first)
		}
	}
}

func TestComputeContentHashIgnoresChainBlock(t *testing.T) {
	e := testEntry(0, "")
	base, _ := ComputeContentHash(e, SHA256)

	e.Chain.PrevHash = "deadbeef"
	e.Chain.ContentHash = "cafef00d"
	e.Chain.Sequence = 99

	after, _ := ComputeContentHash(e, SHA256)
	if after != base {
		t.Error("mutating the chain block changed the content hash")
	}
}

func TestComputeContentHashCoversContent(t *testing.T) {
	base, _ := ComputeContentHash(testEntry(0, ""), SHA256)

	mutations := map[string]func(*audit.Entry){
		"actor":    func(e *audit.Entry) { e.Actor.ID = "mallory" },
		"action":   func(e *audit.Entry) { e.Action.Type = "force_push" },
		"outcome":  func(e *audit.Entry) { e.Outcome.Status = audit.OutcomeFailure },
		"details":  func(e *audit.Entry) { e.Details["effect"] = "deny" },
		"tags":     func(e *audit.Entry) { e.Tags = []string{"x"} },
		"highRisk": func(e *audit.Entry) { e.HighRisk = true },
		"time":     func(e *audit.Entry) { e.Timestamp = e.Timestamp.Add(time.Second) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			e := testEntry(0, "")
			mutate(e)
			got, err := ComputeContentHash(e, SHA256)
			if err != nil {
				t.Fatalf("ComputeContentHash() error: %v", err)
			}
			if got == base {
				t.Errorf("mutating %s did not change the hash", name)
			}
		})
	}
}

func TestComputeContentHashTimezoneInsensitive(t *testing.T) {
	e := testEntry(0, "")
	base, _ := ComputeContentHash(e, SHA256)

	e.Timestamp = e.Timestamp.In(time.FixedZone("UTC+2", 2*3600))
	got, _ := ComputeContentHash(e, SHA256)
	if got != base {
		t.Error("representing the same instant in another zone changed the hash")
	}
}

func TestComputeContentHashAlgorithms(t *testing.T) {
	e := testEntry(0, "")
	lengths := map[Algorithm]int{SHA256: 64, SHA384: 96, SHA512: 128}

	for algo, wantLen := range lengths {
		got, err := ComputeContentHash(e, algo)
		if err != nil {
			t.Fatalf("ComputeContentHash(%s) error: %v", algo, err)
		}
		if len(got) != wantLen {
			t.Errorf("%s digest length = %d, want %d", algo, len(got), wantLen)
		}
	}

	if _, err := ComputeContentHash(e, "md5"); err == nil {
		t.Error("unsupported algorithm accepted")
	}
	if _, err := ComputeContentHash(nil, SHA256); err == nil {
		t.Error("nil entry accepted")
	}
}

func TestVerifyChainValid(t *testing.T) {
	entries := buildChain(t, 3)

	result := VerifyChain(entries)
	if !result.Valid {
		t.Fatalf("VerifyChain() invalid: %s", result.Error)
	}
	if result.EntriesVerified != 3 {
		t.Errorf("EntriesVerified = %d, want 3", result.EntriesVerified)
	}
	if result.FirstInvalidSequence != nil {
		t.Errorf("FirstInvalidSequence = %v, want nil", *result.FirstInvalidSequence)
	}
}

func TestVerifyChainEmpty(t *testing.T) {
	result := VerifyChain(nil)
	if !result.Valid || result.EntriesVerified != 0 {
		t.Errorf("empty chain: valid=%v verified=%d, want trivially valid", result.Valid, result.EntriesVerified)
	}
}

func TestVerifyChainDetectsTamperedContent(t *testing.T) {
	entries := buildChain(t, 3)

	// Mutate the middle entry's action after the fact.
	entries[1].Action.Type = "force_push"

	result := VerifyChain(entries)
	if result.Valid {
		t.Fatal("VerifyChain() valid after tampering")
	}
	if result.FirstInvalidSequence == nil || *result.FirstInvalidSequence != 1 {
		t.Errorf("FirstInvalidSequence = %v, want 1", result.FirstInvalidSequence)
	}
	if result.EntriesVerified != 1 {
		t.Errorf("EntriesVerified = %d, want 1", result.EntriesVerified)
	}
	if !strings.Contains(result.Error, "content hash mismatch") {
		t.Errorf("Error = %q, want content hash mismatch", result.Error)
	}
}

func TestVerifyChainDetectsBrokenLink(t *testing.T) {
	entries := buildChain(t, 3)

	// Re-hash the middle entry so its own content verifies but the link
	// from entry 2 no longer does.
	entries[1].Action.Type = "force_push"
	rehash, err := ComputeContentHash(entries[1], SHA256)
	if err != nil {
		t.Fatal(err)
	}
	entries[1].Chain.ContentHash = rehash

	result := VerifyChain(entries)
	if result.Valid {
		t.Fatal("VerifyChain() valid with broken link")
	}
	if result.FirstInvalidSequence == nil || *result.FirstInvalidSequence != 2 {
		t.Errorf("FirstInvalidSequence = %v, want 2 (link from successor)", result.FirstInvalidSequence)
	}
}

func TestVerifyChainDetectsExcisedEntry(t *testing.T) {
	entries := buildChain(t, 3)

	// Remove the middle entry; the sequence gap must be detected.
	spliced := []*audit.Entry{entries[0], entries[2]}

	result := VerifyChain(spliced)
	if result.Valid {
		t.Fatal("VerifyChain() valid after excising an entry")
	}
	if result.FirstInvalidSequence == nil || *result.FirstInvalidSequence != 2 {
		t.Errorf("FirstInvalidSequence = %v, want 2", result.FirstInvalidSequence)
	}
}

func TestVerifyChainSubsequence(t *testing.T) {
	entries := buildChain(t, 5)

	// A contiguous subsequence not starting at genesis is internally
	// consistent and verifies.
	result := VerifyChain(entries[2:])
	if !result.Valid {
		t.Fatalf("VerifyChain(subsequence) invalid: %s", result.Error)
	}
	if result.EntriesVerified != 3 {
		t.Errorf("EntriesVerified = %d, want 3", result.EntriesVerified)
	}
}

func TestVerifyChainGenesisPrevHash(t *testing.T) {
	entries := buildChain(t, 1)
	entries[0].Chain.PrevHash = "deadbeef"

	// PrevHash participates in no content hash, but a genesis entry
	// claiming a predecessor is still a chain violation.
	result := VerifyChain(entries)
	if result.Valid {
		t.Fatal("VerifyChain() accepted genesis entry with prev hash")
	}
}
