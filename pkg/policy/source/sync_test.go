package source

import (
	"context"
	"os"
	"testing"
	"time"

	"argus-hq/argus/pkg/policy/engine"
	"argus-hq/argus/pkg/policy/schema"
)

func newSyncedEngine(t *testing.T) (*Syncer, *engine.Engine) {
	t.Helper()
	eng, err := engine.New(nil, nil, nil)
	if err != nil {
		t.Fatalf("engine.New() error: %v", err)
	}
	return NewSyncer(NewLoader(nil), eng, nil), eng
}

func TestSyncInstallsDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gates.yaml", validPolicy)

	s, eng := newSyncedEngine(t)
	if err := s.Sync(dir); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	if got := eng.DocumentNames(); len(got) != 1 || got[0] != "pr-gates" {
		t.Fatalf("DocumentNames() = %v, want [pr-gates]", got)
	}

	result, err := eng.Evaluate(context.Background(), &schema.EvaluationRequest{
		Actor:    schema.Actor{ID: "alice"},
		Action:   schema.ActionInfo{Name: "merge"},
		Resource: schema.ResourceInfo{Files: []string{"vendor/lib/dep.go"}},
		Context:  schema.RequestContext{Timestamp: time.Now()},
	})
	if err != nil {
		t.Fatalf("Evaluate() error: %v", err)
	}
	if result.Allowed {
		t.Error("vendor change allowed despite loaded deny rule")
	}
}

func TestSyncRemovesDeletedDocuments(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gates.yaml", validPolicy)
	writeFile(t, dir, "other.yaml", minimalPolicy("other"))

	s, eng := newSyncedEngine(t)
	if err := s.Sync(dir); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}
	if got := eng.DocumentNames(); len(got) != 2 {
		t.Fatalf("DocumentNames() = %v, want 2 documents", got)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := s.Sync(dir); err != nil {
		t.Fatalf("second Sync() error: %v", err)
	}
	if got := eng.DocumentNames(); len(got) != 1 || got[0] != "other" {
		t.Errorf("DocumentNames() = %v, want [other]", got)
	}
}

func TestSyncKeepsPreviousVersionOnBadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gates.yaml", validPolicy)

	s, eng := newSyncedEngine(t)
	if err := s.Sync(dir); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	// Corrupt the file; the installed version must survive the failed sync.
	if err := os.WriteFile(path, []byte("rules: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Sync(dir); err == nil {
		t.Error("Sync() reported no error for corrupted file")
	}
	if got := eng.DocumentNames(); len(got) != 1 || got[0] != "pr-gates" {
		t.Errorf("DocumentNames() = %v, want previous pr-gates retained", got)
	}
}

func TestSyncUnloadsOnlyMissingFiles(t *testing.T) {
	dir := t.TempDir()
	gone := writeFile(t, dir, "gates.yaml", validPolicy)
	broken := writeFile(t, dir, "other.yaml", minimalPolicy("other"))

	s, eng := newSyncedEngine(t)
	if err := s.Sync(dir); err != nil {
		t.Fatalf("Sync() error: %v", err)
	}

	// One file deleted, the other corrupted in the same round: only the
	// deleted document should be unloaded.
	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(broken, []byte("rules: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Sync(dir); err == nil {
		t.Error("Sync() reported no error for corrupted file")
	}
	if got := eng.DocumentNames(); len(got) != 1 || got[0] != "other" {
		t.Errorf("DocumentNames() = %v, want [other]", got)
	}
}

func TestWatcherCollapsesBursts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gates.yaml", validPolicy)

	cfg := DefaultFileWatcherConfig()
	cfg.Path = dir
	cfg.DebounceInterval = 50 * time.Millisecond

	fw, err := NewFileWatcher(cfg, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error: %v", err)
	}

	reloaded := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fw.Watch(ctx, func() error {
			reloaded <- struct{}{}
			return nil
		})
	}()

	time.Sleep(50 * time.Millisecond)
	for i := 0; i < 5; i++ {
		writeFile(t, dir, "gates.yaml", validPolicy+"\n# touched\n")
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("burst of writes never triggered a reload")
	}

	select {
	case <-reloaded:
		t.Error("burst of writes triggered more than one reload")
	case <-time.After(200 * time.Millisecond):
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Watch() returned error: %v", err)
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "gates.yaml", validPolicy)

	cfg := DefaultFileWatcherConfig()
	cfg.Path = dir
	cfg.DebounceInterval = 20 * time.Millisecond

	fw, err := NewFileWatcher(cfg, nil)
	if err != nil {
		t.Fatalf("NewFileWatcher() error: %v", err)
	}

	reloaded := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fw.Watch(ctx, func() error {
			reloaded <- struct{}{}
			return nil
		})
	}()

	// Give the watcher a beat to install its watches.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, dir, "gates.yaml", validPolicy+"\n# touched\n")

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never triggered a reload")
	}

	if err := fw.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Watch() returned error: %v", err)
	}
}
