package sweep

import (
	"context"
	"fmt"
	"testing"

	"argus-hq/argus/pkg/audit"
	auditlog "argus-hq/argus/pkg/audit/log"
	"argus-hq/argus/pkg/audit/storage"
)

func openLogWithEntries(t *testing.T, store audit.Storage, scope string, n int) *auditlog.Log {
	t.Helper()
	ctx := context.Background()

	l, err := auditlog.Open(ctx, store, "acme", scope, nil, nil, nil)
	if err != nil {
		t.Fatalf("Open(%s) error: %v", scope, err)
	}
	for i := 0; i < n; i++ {
		_, err := l.Append(ctx, &audit.EntryInput{
			Actor:   audit.EntryActor{Type: audit.ActorUser, ID: "alice"},
			Action:  audit.EntryAction{Category: audit.CategoryPolicy, Type: fmt.Sprintf("a%d", i)},
			Outcome: audit.EntryOutcome{Status: audit.OutcomeSuccess},
		})
		if err != nil {
			t.Fatalf("Append() error: %v", err)
		}
	}
	return l
}

func TestRunVerifiesRegisteredLogs(t *testing.T) {
	store := storage.NewMemoryStorage()
	a := openLogWithEntries(t, store, "prod", 3)
	b := openLogWithEntries(t, store, "staging", 2)

	s := NewSweeper(nil)
	s.Register(a)
	s.Register(b)

	report := s.Run(context.Background())
	if len(report.Logs) != 2 {
		t.Fatalf("report covers %d logs, want 2", len(report.Logs))
	}
	if report.Invalid != 0 {
		t.Errorf("Invalid = %d, want 0", report.Invalid)
	}

	verified := map[string]int{}
	for _, lr := range report.Logs {
		if !lr.Valid {
			t.Errorf("log %s reported invalid: %s", lr.LogID, lr.Error)
		}
		verified[lr.LogID] = lr.EntriesVerified
	}
	if verified[a.ID()] != 3 || verified[b.ID()] != 2 {
		t.Errorf("entries verified = %v", verified)
	}

	if s.LastReport() != report {
		t.Error("LastReport() does not return the latest report")
	}
}

func TestRunReportsBrokenChain(t *testing.T) {
	store := &tamperStorage{Storage: storage.NewMemoryStorage()}
	intactStore := storage.NewMemoryStorage()

	broken := openLogWithEntries(t, store, "prod", 3)
	intact := openLogWithEntries(t, intactStore, "prod", 3)

	s := NewSweeper(nil)
	s.Register(broken)
	s.Register(intact)

	store.mutateSequence = 1
	report := s.Run(context.Background())

	if report.Invalid != 1 {
		t.Fatalf("Invalid = %d, want 1", report.Invalid)
	}
	for _, lr := range report.Logs {
		switch lr.LogID {
		case broken.ID():
			if lr.Valid {
				t.Error("tampered log reported valid")
			}
			if lr.EntriesVerified != 1 {
				t.Errorf("EntriesVerified = %d, want 1", lr.EntriesVerified)
			}
		case intact.ID():
			if !lr.Valid {
				t.Errorf("intact log reported invalid: %s", lr.Error)
			}
		}
	}
}

func TestUnregisterRemovesLog(t *testing.T) {
	store := storage.NewMemoryStorage()
	l := openLogWithEntries(t, store, "prod", 1)

	s := NewSweeper(nil)
	s.Register(l)
	s.Unregister(l.ID())

	report := s.Run(context.Background())
	if len(report.Logs) != 0 {
		t.Errorf("report covers %d logs after unregister, want 0", len(report.Logs))
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewSweeper(&Config{Schedule: "not a cron line"})
	if err := s.Start(context.Background()); err == nil {
		t.Error("Start() accepted invalid schedule")
	}
}

func TestStartWithoutSchedule(t *testing.T) {
	s := NewSweeper(&Config{})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if s.IsRunning() {
		t.Error("sweeper running without a schedule")
	}
}

func TestStartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewSweeper(&Config{Schedule: "0 3 * * *"})
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("sweeper not running after Start")
	}
	if s.NextRun() == nil {
		t.Error("NextRun() is nil while running")
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("sweeper still running after Stop")
	}
}

// tamperStorage mutates one queried entry to simulate stored-data tampering.
type tamperStorage struct {
	audit.Storage
	mutateSequence int64
}

func (s *tamperStorage) Query(ctx context.Context, q *audit.Query) (*audit.QueryResult, error) {
	res, err := s.Storage.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if s.mutateSequence > 0 {
		for _, e := range res.Entries {
			if e.Chain.Sequence == s.mutateSequence {
				e.Action.Type = "tampered"
			}
		}
	}
	return res, nil
}
