package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"argus-hq/argus/pkg/audit"
	"argus-hq/argus/pkg/audit/chain"
)

// Both backends satisfy the full audit.Storage contract, Close included.
var (
	_ audit.Storage = (*MemoryStorage)(nil)
	_ audit.Storage = (*SQLiteStorage)(nil)
)

// forEachBackend runs fn against every storage implementation so both honor
// the same contract.
func forEachBackend(t *testing.T, fn func(t *testing.T, store audit.Storage)) {
	t.Helper()

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStorage())
	})

	t.Run("sqlite", func(t *testing.T) {
		config := DefaultSQLiteConfig()
		config.Path = filepath.Join(t.TempDir(), "audit.db")
		store, err := NewSQLiteStorage(config)
		if err != nil {
			t.Fatalf("NewSQLiteStorage() error: %v", err)
		}
		t.Cleanup(func() { store.Close() })
		fn(t, store)
	})
}

func newTestMetadata(logID string) *audit.LogMetadata {
	return &audit.LogMetadata{
		LogID:          logID,
		TenantID:       "acme",
		Scope:          "prod",
		LatestSequence: -1,
		CreatedAt:      time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

// appendTestEntry builds a hashed entry linked to head and appends it.
func appendTestEntry(t *testing.T, store audit.Storage, logID string, head audit.HeadState, actionType string) *audit.Entry {
	t.Helper()

	seq := head.LatestSequence + 1
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Minute)
	entry := &audit.Entry{
		ID:        audit.NewEntryID(ts, seq),
		LogID:     logID,
		Timestamp: ts,
		Actor:     audit.EntryActor{Type: audit.ActorUser, ID: "alice"},
		Action:    audit.EntryAction{Category: audit.CategoryPolicy, Type: actionType},
		Outcome:   audit.EntryOutcome{Status: audit.OutcomeSuccess},
		Context:   audit.EntryContext{TenantID: "acme"},
		Chain: audit.ChainBlock{
			Sequence:   seq,
			PrevHash:   head.HeadHash,
			Algorithm:  string(chain.DefaultAlgorithm),
			ComputedAt: ts,
		},
	}
	hash, err := chain.ComputeContentHash(entry, chain.DefaultAlgorithm)
	if err != nil {
		t.Fatalf("ComputeContentHash() error: %v", err)
	}
	entry.Chain.ContentHash = hash

	if err := store.AppendEntry(context.Background(), entry, head); err != nil {
		t.Fatalf("AppendEntry(seq %d) error: %v", seq, err)
	}
	return entry
}

func headOf(t *testing.T, store audit.Storage, logID string) audit.HeadState {
	t.Helper()
	meta, err := store.GetMetadata(context.Background(), logID)
	if err != nil {
		t.Fatalf("GetMetadata() error: %v", err)
	}
	return audit.HeadState{LatestSequence: meta.LatestSequence, HeadHash: meta.HeadHash}
}

func TestCreateAndFindLog(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		ctx := context.Background()
		meta := newTestMetadata("log-acme-prod-aaaaaaaa")

		if err := store.CreateLog(ctx, meta); err != nil {
			t.Fatalf("CreateLog() error: %v", err)
		}

		found, err := store.FindLog(ctx, "acme", "prod")
		if err != nil {
			t.Fatalf("FindLog() error: %v", err)
		}
		if found.LogID != meta.LogID {
			t.Errorf("FindLog() LogID = %s, want %s", found.LogID, meta.LogID)
		}
		if found.LatestSequence != -1 || found.EntryCount != 0 || found.Sealed {
			t.Errorf("fresh log metadata = %+v", found)
		}

		got, err := store.GetMetadata(ctx, meta.LogID)
		if err != nil {
			t.Fatalf("GetMetadata() error: %v", err)
		}
		if got.TenantID != "acme" || got.Scope != "prod" {
			t.Errorf("GetMetadata() = %+v", got)
		}

		var nf *audit.NotFoundError
		if _, err := store.FindLog(ctx, "acme", "staging"); !errors.As(err, &nf) {
			t.Errorf("FindLog(unknown scope) error = %v, want *audit.NotFoundError", err)
		}
		if _, err := store.GetMetadata(ctx, "log-nope"); !errors.As(err, &nf) {
			t.Errorf("GetMetadata(unknown) error = %v, want *audit.NotFoundError", err)
		}

		if err := store.CreateLog(ctx, newTestMetadata("log-acme-prod-bbbbbbbb")); err == nil {
			t.Error("CreateLog() for duplicate tenant+scope succeeded")
		}
	})
}

func TestAppendAdvancesHead(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		ctx := context.Background()
		meta := newTestMetadata("log-acme-prod-aaaaaaaa")
		if err := store.CreateLog(ctx, meta); err != nil {
			t.Fatalf("CreateLog() error: %v", err)
		}

		var entries []*audit.Entry
		for i := 0; i < 3; i++ {
			head := headOf(t, store, meta.LogID)
			entries = append(entries, appendTestEntry(t, store, meta.LogID, head, fmt.Sprintf("a%d", i)))
		}

		got, err := store.GetMetadata(ctx, meta.LogID)
		if err != nil {
			t.Fatalf("GetMetadata() error: %v", err)
		}
		if got.LatestSequence != 2 {
			t.Errorf("LatestSequence = %d, want 2", got.LatestSequence)
		}
		if got.EntryCount != 3 {
			t.Errorf("EntryCount = %d, want 3", got.EntryCount)
		}
		if got.HeadHash != entries[2].Chain.ContentHash {
			t.Error("HeadHash does not match last entry")
		}
	})
}

func TestAppendHeadConflict(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		ctx := context.Background()
		meta := newTestMetadata("log-acme-prod-aaaaaaaa")
		if err := store.CreateLog(ctx, meta); err != nil {
			t.Fatalf("CreateLog() error: %v", err)
		}

		head := headOf(t, store, meta.LogID)
		appendTestEntry(t, store, meta.LogID, head, "first")

		// Second writer still holds the stale head.
		stale := &audit.Entry{
			ID:        audit.NewEntryID(time.Now(), 0),
			LogID:     meta.LogID,
			Timestamp: time.Now().UTC(),
			Actor:     audit.EntryActor{Type: audit.ActorUser, ID: "bob"},
			Action:    audit.EntryAction{Category: audit.CategoryPolicy, Type: "stale"},
			Outcome:   audit.EntryOutcome{Status: audit.OutcomeSuccess},
			Chain:     audit.ChainBlock{Sequence: 0, Algorithm: string(chain.DefaultAlgorithm)},
		}
		hash, err := chain.ComputeContentHash(stale, chain.DefaultAlgorithm)
		if err != nil {
			t.Fatalf("ComputeContentHash() error: %v", err)
		}
		stale.Chain.ContentHash = hash

		err = store.AppendEntry(ctx, stale, head)
		if !errors.Is(err, audit.ErrSequenceConflict) {
			t.Errorf("AppendEntry(stale head) error = %v, want ErrSequenceConflict", err)
		}

		got, _ := store.GetMetadata(ctx, meta.LogID)
		if got.EntryCount != 1 {
			t.Errorf("EntryCount = %d after rejected append, want 1", got.EntryCount)
		}
	})
}

func TestAppendUnknownLog(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		entry := &audit.Entry{
			LogID:   "log-nope",
			Actor:   audit.EntryActor{Type: audit.ActorUser, ID: "alice"},
			Action:  audit.EntryAction{Category: audit.CategoryPolicy, Type: "x"},
			Outcome: audit.EntryOutcome{Status: audit.OutcomeSuccess},
		}
		err := store.AppendEntry(context.Background(), entry, audit.HeadState{LatestSequence: -1})
		var nf *audit.NotFoundError
		if !errors.As(err, &nf) {
			t.Errorf("AppendEntry(unknown log) error = %v, want *audit.NotFoundError", err)
		}
	})
}

func TestSealLog(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		ctx := context.Background()
		meta := newTestMetadata("log-acme-prod-aaaaaaaa")
		if err := store.CreateLog(ctx, meta); err != nil {
			t.Fatalf("CreateLog() error: %v", err)
		}
		appendTestEntry(t, store, meta.LogID, headOf(t, store, meta.LogID), "before_seal")

		if err := store.SealLog(ctx, meta.LogID); err != nil {
			t.Fatalf("SealLog() error: %v", err)
		}

		got, _ := store.GetMetadata(ctx, meta.LogID)
		if !got.Sealed || got.SealedAt == nil {
			t.Errorf("metadata after seal = %+v", got)
		}
		sealedAt := *got.SealedAt

		// Appends against a sealed log fail regardless of head state.
		entry := &audit.Entry{
			LogID:   meta.LogID,
			Actor:   audit.EntryActor{Type: audit.ActorUser, ID: "alice"},
			Action:  audit.EntryAction{Category: audit.CategoryPolicy, Type: "late"},
			Outcome: audit.EntryOutcome{Status: audit.OutcomeSuccess},
			Chain:   audit.ChainBlock{Sequence: 1, Algorithm: string(chain.DefaultAlgorithm)},
		}
		err := store.AppendEntry(ctx, entry, headOf(t, store, meta.LogID))
		var se *audit.SealedLogError
		if !errors.As(err, &se) {
			t.Errorf("AppendEntry(sealed) error = %v, want *audit.SealedLogError", err)
		}

		// Idempotent: resealing keeps the original timestamp.
		if err := store.SealLog(ctx, meta.LogID); err != nil {
			t.Fatalf("second SealLog() error: %v", err)
		}
		got, _ = store.GetMetadata(ctx, meta.LogID)
		if !got.SealedAt.Equal(sealedAt) {
			t.Errorf("SealedAt moved from %v to %v", sealedAt, *got.SealedAt)
		}

		var nf *audit.NotFoundError
		if err := store.SealLog(ctx, "log-nope"); !errors.As(err, &nf) {
			t.Errorf("SealLog(unknown) error = %v, want *audit.NotFoundError", err)
		}
	})
}

func TestQueryOrderAndPagination(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		ctx := context.Background()
		meta := newTestMetadata("log-acme-prod-aaaaaaaa")
		if err := store.CreateLog(ctx, meta); err != nil {
			t.Fatalf("CreateLog() error: %v", err)
		}
		for i := 0; i < 5; i++ {
			appendTestEntry(t, store, meta.LogID, headOf(t, store, meta.LogID), fmt.Sprintf("a%d", i))
		}

		res, err := store.Query(ctx, &audit.Query{LogID: meta.LogID})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(res.Entries) != 5 || res.Total != 5 {
			t.Fatalf("got %d entries total %d, want 5/5", len(res.Entries), res.Total)
		}
		for i, e := range res.Entries {
			if e.Chain.Sequence != int64(i) {
				t.Errorf("position %d holds sequence %d", i, e.Chain.Sequence)
			}
		}

		page, err := store.Query(ctx, &audit.Query{LogID: meta.LogID, Limit: 2, Offset: 3})
		if err != nil {
			t.Fatalf("Query(page) error: %v", err)
		}
		if len(page.Entries) != 2 || page.Total != 5 {
			t.Fatalf("page: %d entries total %d, want 2/5", len(page.Entries), page.Total)
		}
		if page.Entries[0].Chain.Sequence != 3 {
			t.Errorf("page starts at %d, want 3", page.Entries[0].Chain.Sequence)
		}

		var nf *audit.NotFoundError
		if _, err := store.Query(ctx, &audit.Query{LogID: "log-nope"}); !errors.As(err, &nf) {
			t.Errorf("Query(unknown log) error = %v, want *audit.NotFoundError", err)
		}
	})
}

func TestCloseReleasesBackend(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
}

func TestQueryTimeWindowIncludesFractionalSeconds(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		ctx := context.Background()
		meta := newTestMetadata("log-acme-prod-aaaaaaaa")
		if err := store.CreateLog(ctx, meta); err != nil {
			t.Fatalf("CreateLog() error: %v", err)
		}

		// Entry inside the boundary second of a whole-second window.
		ts := time.Date(2025, 5, 1, 10, 0, 0, 300_000_000, time.UTC)
		entry := &audit.Entry{
			ID:        audit.NewEntryID(ts, 0),
			LogID:     meta.LogID,
			Timestamp: ts,
			Actor:     audit.EntryActor{Type: audit.ActorUser, ID: "alice"},
			Action:    audit.EntryAction{Category: audit.CategoryPolicy, Type: "boundary"},
			Outcome:   audit.EntryOutcome{Status: audit.OutcomeSuccess},
			Context:   audit.EntryContext{TenantID: "acme"},
			Chain: audit.ChainBlock{
				Sequence:   0,
				Algorithm:  string(chain.DefaultAlgorithm),
				ComputedAt: ts,
			},
		}
		hash, err := chain.ComputeContentHash(entry, chain.DefaultAlgorithm)
		if err != nil {
			t.Fatalf("ComputeContentHash() error: %v", err)
		}
		entry.Chain.ContentHash = hash
		if err := store.AppendEntry(ctx, entry, audit.HeadState{LatestSequence: -1}); err != nil {
			t.Fatalf("AppendEntry() error: %v", err)
		}

		res, err := store.Query(ctx, &audit.Query{
			LogID:     meta.LogID,
			StartTime: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 5, 1, 11, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(res.Entries) != 1 {
			t.Fatalf("got %d entries, want the 10:00:00.3 entry included", len(res.Entries))
		}

		// The same fractional bound excludes the entry when used as EndTime.
		res, err = store.Query(ctx, &audit.Query{
			LogID:   meta.LogID,
			EndTime: ts,
		})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(res.Entries) != 0 {
			t.Errorf("got %d entries, want exclusive end bound to drop the entry", len(res.Entries))
		}
	})
}

func TestQueryIsolatesLogs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store audit.Storage) {
		ctx := context.Background()
		a := newTestMetadata("log-acme-prod-aaaaaaaa")
		b := newTestMetadata("log-acme-stage-bbbbbbbb")
		b.Scope = "staging"
		if err := store.CreateLog(ctx, a); err != nil {
			t.Fatalf("CreateLog(a) error: %v", err)
		}
		if err := store.CreateLog(ctx, b); err != nil {
			t.Fatalf("CreateLog(b) error: %v", err)
		}

		appendTestEntry(t, store, a.LogID, headOf(t, store, a.LogID), "in_a")
		appendTestEntry(t, store, b.LogID, headOf(t, store, b.LogID), "in_b")

		res, err := store.Query(ctx, &audit.Query{LogID: a.LogID})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(res.Entries) != 1 || res.Entries[0].Action.Type != "in_a" {
			t.Errorf("log a query leaked entries: %+v", res.Entries)
		}
	})
}

// TestSQLiteRoundTripPreservesHash proves that persisting and reloading an
// entry does not change the bytes the chain hash covers.
func TestSQLiteRoundTripPreservesHash(t *testing.T) {
	config := DefaultSQLiteConfig()
	config.Path = filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	meta := newTestMetadata("log-acme-prod-aaaaaaaa")
	if err := store.CreateLog(ctx, meta); err != nil {
		t.Fatalf("CreateLog() error: %v", err)
	}

	ts := time.Date(2025, 5, 1, 12, 0, 0, 123456789, time.UTC)
	entry := &audit.Entry{
		ID:        audit.NewEntryID(ts, 0),
		LogID:     meta.LogID,
		Timestamp: ts,
		Actor:     audit.EntryActor{Type: audit.ActorAgent, ID: "bot-1", Name: "Deploy Bot"},
		Action:    audit.EntryAction{Category: audit.CategorySecurity, Type: "secret_access", Sensitive: true},
		Resource:  &audit.EntryResource{Type: "secret", ID: "db-creds", Name: "DB credentials"},
		Outcome:   audit.EntryOutcome{Status: audit.OutcomeFailure, ErrorCode: "E_TIMEOUT", DurationMs: 420},
		Context:   audit.EntryContext{TenantID: "acme", TraceID: "trace-1", RunID: "run-7"},
		Tags:      []string{"CC6.1", "incident"},
		HighRisk:  true,
		Details:   map[string]interface{}{"region": "eu-west-1", "attempts": float64(3)},
		Chain: audit.ChainBlock{
			Sequence:   0,
			Algorithm:  string(chain.DefaultAlgorithm),
			ComputedAt: ts,
		},
	}
	hash, err := chain.ComputeContentHash(entry, chain.DefaultAlgorithm)
	if err != nil {
		t.Fatalf("ComputeContentHash() error: %v", err)
	}
	entry.Chain.ContentHash = hash

	if err := store.AppendEntry(ctx, entry, audit.HeadState{LatestSequence: -1}); err != nil {
		t.Fatalf("AppendEntry() error: %v", err)
	}

	res, err := store.Query(ctx, &audit.Query{LogID: meta.LogID})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(res.Entries))
	}

	loaded := res.Entries[0]
	recomputed, err := chain.ComputeContentHash(loaded, chain.DefaultAlgorithm)
	if err != nil {
		t.Fatalf("ComputeContentHash(loaded) error: %v", err)
	}
	if recomputed != hash {
		t.Errorf("hash changed across round trip: stored %s recomputed %s", hash, recomputed)
	}
	if verification := chain.VerifyChain(res.Entries); !verification.Valid {
		t.Errorf("VerifyChain() invalid after round trip: %s", verification.Error)
	}
}

func TestSQLiteQueryFilters(t *testing.T) {
	config := DefaultSQLiteConfig()
	config.Path = filepath.Join(t.TempDir(), "audit.db")
	store, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	meta := newTestMetadata("log-acme-prod-aaaaaaaa")
	if err := store.CreateLog(ctx, meta); err != nil {
		t.Fatalf("CreateLog() error: %v", err)
	}

	base := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	seed := []struct {
		category audit.Category
		action   string
		status   audit.OutcomeStatus
		actor    string
		tags     []string
	}{
		{audit.CategoryAuth, "login", audit.OutcomeSuccess, "alice", []string{"CC6.1"}},
		{audit.CategoryPolicy, "policy_evaluated", audit.OutcomeDenied, "bot-1", nil},
		{audit.CategorySecurity, "secret_access", audit.OutcomeFailure, "alice", []string{"incident"}},
		{audit.CategoryData, "export", audit.OutcomeSuccess, "bob", []string{"rate_50%"}},
		{audit.CategoryData, "export", audit.OutcomeSuccess, "bob", []string{"rate_50x"}},
	}
	for i, s := range seed {
		head := headOf(t, store, meta.LogID)
		seq := head.LatestSequence + 1
		ts := base.Add(time.Duration(i) * time.Minute)
		entry := &audit.Entry{
			ID:        audit.NewEntryID(ts, seq),
			LogID:     meta.LogID,
			Timestamp: ts,
			Actor:     audit.EntryActor{Type: audit.ActorUser, ID: s.actor},
			Action:    audit.EntryAction{Category: s.category, Type: s.action},
			Outcome:   audit.EntryOutcome{Status: s.status},
			Context:   audit.EntryContext{TenantID: "acme"},
			Tags:      s.tags,
			Chain: audit.ChainBlock{
				Sequence:   seq,
				PrevHash:   head.HeadHash,
				Algorithm:  string(chain.DefaultAlgorithm),
				ComputedAt: ts,
			},
		}
		hash, err := chain.ComputeContentHash(entry, chain.DefaultAlgorithm)
		if err != nil {
			t.Fatalf("ComputeContentHash() error: %v", err)
		}
		entry.Chain.ContentHash = hash
		if err := store.AppendEntry(ctx, entry, head); err != nil {
			t.Fatalf("AppendEntry(%d) error: %v", i, err)
		}
	}

	tests := []struct {
		name  string
		query *audit.Query
		want  int64
	}{
		{"by category", &audit.Query{LogID: meta.LogID, Category: audit.CategoryAuth}, 1},
		{"by status", &audit.Query{LogID: meta.LogID, Status: audit.OutcomeDenied}, 1},
		{"by actor", &audit.Query{LogID: meta.LogID, ActorID: "alice"}, 2},
		{"by tag", &audit.Query{LogID: meta.LogID, Tag: "CC6.1"}, 1},
		{"by tag with like metacharacters", &audit.Query{LogID: meta.LogID, Tag: "rate_50%"}, 1},
		{"by partial tag", &audit.Query{LogID: meta.LogID, Tag: "rate"}, 0},
		{"by time window", &audit.Query{LogID: meta.LogID, StartTime: base.Add(30 * time.Second), EndTime: base.Add(90 * time.Second)}, 1},
		{"by sequence range", &audit.Query{LogID: meta.LogID, StartSequence: int64Ptr(1), EndSequence: int64Ptr(2)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := store.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query() error: %v", err)
			}
			if res.Total != tt.want {
				t.Errorf("Total = %d, want %d", res.Total, tt.want)
			}
		})
	}
}

func int64Ptr(v int64) *int64 { return &v }
