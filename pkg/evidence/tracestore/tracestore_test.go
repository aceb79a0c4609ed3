package tracestore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"argus-hq/argus/pkg/evidence"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(&SQLiteStoreConfig{
		Path: filepath.Join(t.TempDir(), "traces.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testTrace(tenant string, ts time.Time, decision string, confidence float64) *DecisionTrace {
	return &DecisionTrace{
		ID:         uuid.New().String(),
		TenantID:   tenant,
		RunID:      "run-1",
		AgentType:  "code_reviewer",
		Timestamp:  ts,
		Action:     "merge",
		Decision:   decision,
		Confidence: confidence,
	}
}

func TestStoreInsertAndQuery(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	traces := []*DecisionTrace{
		testTrace("acme", base, "proceed", 0.9),
		testTrace("acme", base.Add(time.Hour), "abort", 0.3),
		testTrace("other", base, "proceed", 0.8),
	}
	traces[1].Details = map[string]interface{}{"reason": "failing tests"}
	for i, tr := range traces {
		if err := store.Insert(ctx, tr); err != nil {
			t.Fatalf("Insert(%d) error: %v", i, err)
		}
	}

	got, err := store.Query(ctx, &Filter{TenantID: "acme"})
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d traces, want 2", len(got))
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("traces not in ascending timestamp order")
	}
	if got[1].Details["reason"] != "failing tests" {
		t.Errorf("details lost in round trip: %+v", got[1].Details)
	}

	t.Run("time window", func(t *testing.T) {
		got, err := store.Query(ctx, &Filter{
			TenantID:  "acme",
			StartTime: base.Add(30 * time.Minute),
			EndTime:   base.Add(2 * time.Hour),
		})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 1 || got[0].Decision != "abort" {
			t.Errorf("window query = %+v, want the abort trace", got)
		}
	})

	t.Run("agent type", func(t *testing.T) {
		got, err := store.Query(ctx, &Filter{AgentType: "code_reviewer"})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("got %d traces, want 3", len(got))
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := store.Query(ctx, &Filter{TenantID: "acme", Limit: 1})
		if err != nil {
			t.Fatalf("Query() error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("got %d traces with limit 1", len(got))
		}
	})
}

func TestScoreTrace(t *testing.T) {
	tests := []struct {
		name        string
		trace       *DecisionTrace
		agentMapped bool
		want        float64
	}{
		{
			name:  "routine proceed",
			trace: &DecisionTrace{Decision: "proceed", Confidence: 0.9},
			want:  0.5,
		},
		{
			name:  "abort",
			trace: &DecisionTrace{Decision: "abort", Confidence: 0.9},
			want:  0.65,
		},
		{
			name:  "low confidence",
			trace: &DecisionTrace{Decision: "proceed", Confidence: 0.2},
			want:  0.6,
		},
		{
			name:        "mapped agent control",
			trace:       &DecisionTrace{Decision: "proceed", Confidence: 0.9},
			agentMapped: true,
			want:        0.7,
		},
		{
			name:        "everything stacks and caps",
			trace:       &DecisionTrace{Decision: "escalate", Confidence: 0.1, Sensitive: true},
			agentMapped: true,
			want:        1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreTrace(tt.trace, tt.agentMapped)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("ScoreTrace() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTraceSourceCollect(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	if err := store.Insert(ctx, testTrace("acme", base, "abort", 0.3)); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	source := NewTraceSource(store)
	window := &evidence.CollectionRequest{
		TenantID:  "acme",
		StartTime: base.Add(-time.Hour),
		EndTime:   base.Add(time.Hour),
	}

	t.Run("agent-mapped control", func(t *testing.T) {
		req := *window
		req.ControlID = "CC7.2"
		items, err := source.Collect(ctx, &req)
		if err != nil {
			t.Fatalf("Collect() error: %v", err)
		}
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1", len(items))
		}
		item := items[0]
		if item.Source != "tracestore" {
			t.Errorf("Source = %s", item.Source)
		}
		// 0.5 + abort 0.15 + low confidence 0.1 + mapped 0.2 = 0.95.
		if diff := item.RelevanceScore - 0.95; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("RelevanceScore = %v, want 0.95", item.RelevanceScore)
		}
		if item.ChainVerification != evidence.VerificationSkipped {
			t.Errorf("ChainVerification = %s, want skipped", item.ChainVerification)
		}
	})

	t.Run("non-agent control yields nothing", func(t *testing.T) {
		req := *window
		req.ControlID = "CC6.2"
		items, err := source.Collect(ctx, &req)
		if err != nil {
			t.Fatalf("Collect() error: %v", err)
		}
		if len(items) != 0 {
			t.Errorf("got %d items for a non-agent control, want 0", len(items))
		}
	})

	t.Run("merges through the collector", func(t *testing.T) {
		c := evidence.NewCollector([]evidence.Source{source}, nil, nil)
		req := *window
		req.ControlID = "CC7.2"
		result, err := c.Collect(ctx, &req)
		if err != nil {
			t.Fatalf("Collect() error: %v", err)
		}
		if result.Summary.BySource["tracestore"] != 1 {
			t.Errorf("BySource = %v", result.Summary.BySource)
		}
	})
}
