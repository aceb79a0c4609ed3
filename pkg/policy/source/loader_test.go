package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"argus-hq/argus/pkg/policy/schema"
)

const validPolicy = `
version: "1"
name: pr-gates
rules:
  - id: block-vendor
    priority: 10
    conditions:
      - type: file_pattern
        patterns: ["vendor/**"]
    action:
      effect: deny
      reason: vendor directory is generated
`

// minimalPolicy returns the smallest valid policy document with the given
// document name.
func minimalPolicy(name string) string {
	return fmt.Sprintf(`
version: "1"
name: %s
rules:
  - id: allow-all
    action:
      effect: allow
`, name)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s): %v", name, err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gates.yaml", validPolicy)

	doc, err := NewLoader(nil).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if doc.Name != "pr-gates" {
		t.Errorf("Name = %q, want %q", doc.Name, "pr-gates")
	}
	if doc.Source != path {
		t.Errorf("Source = %q, want %q", doc.Source, path)
	}
	if len(doc.Rules) != 1 || doc.Rules[0].ID != "block-vendor" {
		t.Errorf("Rules = %+v, want one rule block-vendor", doc.Rules)
	}
	if doc.Rules[0].Action.Effect != schema.EffectDeny {
		t.Errorf("Effect = %q, want deny", doc.Rules[0].Action.Effect)
	}
}

func TestLoadFileNameFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "unnamed.yaml", `
version: "1"
rules:
  - id: allow-all
    action:
      effect: allow
`)

	doc, err := NewLoader(nil).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if doc.Name != "unnamed" {
		t.Errorf("Name = %q, want file-derived %q", doc.Name, "unnamed")
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := NewLoader(nil).LoadFile(filepath.Join(dir, "absent.yaml"))
		var le *LoadError
		if !errors.As(err, &le) {
			t.Fatalf("error = %v, want *LoadError", err)
		}
	})

	t.Run("oversized file", func(t *testing.T) {
		path := writeFile(t, dir, "big.yaml", validPolicy)
		l := NewLoader(&LoaderConfig{MaxFileSize: 10, Extensions: []string{".yaml"}})
		if _, err := l.LoadFile(path); err == nil {
			t.Error("LoadFile() succeeded past size limit")
		}
	})

	t.Run("invalid utf8", func(t *testing.T) {
		path := filepath.Join(dir, "binary.yaml")
		if err := os.WriteFile(path, []byte{0xff, 0xfe, 0x00}, 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewLoader(nil).LoadFile(path); err == nil {
			t.Error("LoadFile() accepted invalid UTF-8")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, dir, "broken.yaml", "rules: [unclosed")
		if _, err := NewLoader(nil).LoadFile(path); err == nil {
			t.Error("LoadFile() accepted malformed YAML")
		}
	})
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", validPolicy)
	writeFile(t, dir, "b.yml", minimalPolicy("second"))
	writeFile(t, dir, "ignored.txt", "not a policy")
	writeFile(t, dir, ".hidden.yaml", validPolicy)

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, sub, "c.yaml", minimalPolicy("third"))

	docs, err := NewLoader(nil).LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory() error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("loaded %d documents, want 3", len(docs))
	}
	// Sorted path order: a.yaml, b.yml, nested/c.yaml.
	wantNames := []string{"pr-gates", "second", "third"}
	for i, want := range wantNames {
		if docs[i].Name != want {
			t.Errorf("docs[%d].Name = %q, want %q", i, docs[i].Name, want)
		}
	}
}

func TestLoadDirectoryPartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", validPolicy)
	writeFile(t, dir, "bad.yaml", "rules: [unclosed")

	docs, err := NewLoader(nil).LoadDirectory(dir)
	if len(docs) != 1 {
		t.Errorf("loaded %d documents, want the good one", len(docs))
	}
	var el *ErrorList
	if !errors.As(err, &el) {
		t.Fatalf("error = %v, want *ErrorList", err)
	}
	if len(el.Errors) != 1 {
		t.Errorf("len(Errors) = %d, want 1", len(el.Errors))
	}
}

func TestLoadDirectoryNotADirectory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "file.yaml", validPolicy)

	if _, err := NewLoader(nil).LoadDirectory(path); err == nil {
		t.Error("LoadDirectory() accepted a plain file")
	}
}
