package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"argus-hq/argus/pkg/audit"
	"argus-hq/argus/pkg/evidence"
)

func testItems() []*evidence.CollectedEvidence {
	ts := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	return []*evidence.CollectedEvidence{
		{
			Ref: evidence.EvidenceReference{
				EntryID:    "alog-1-0-abcdef",
				LogID:      "log-acme-prod-aaaaaaaa",
				Timestamp:  ts,
				Category:   audit.CategorySecurity,
				ActionType: "secret_access",
				ActorID:    "alice",
				Outcome:    "failure",
				Sensitive:  true,
			},
			Source:            "audit:log-acme-prod-aaaaaaaa",
			RelevanceScore:    1.0,
			RelatedControlIDs: []string{"CC6.1", "CC6.6"},
			ChainVerification: evidence.VerificationVerified,
		},
		{
			Ref: evidence.EvidenceReference{
				EntryID:    "alog-2-1-bcdefg",
				LogID:      "log-acme-prod-aaaaaaaa",
				Timestamp:  ts.Add(time.Minute),
				Category:   audit.CategoryAuth,
				ActionType: "login",
				ActorID:    "bob",
				Outcome:    "success",
			},
			Source:            "audit:log-acme-prod-aaaaaaaa",
			RelevanceScore:    0.7,
			RelatedControlIDs: []string{"CC6.1"},
			ChainVerification: evidence.VerificationSkipped,
		},
	}
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), testItems(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	var decoded []*evidence.CollectedEvidence
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d items, want 2", len(decoded))
	}
	if decoded[0].Ref.EntryID != "alog-1-0-abcdef" || decoded[0].RelevanceScore != 1.0 {
		t.Errorf("first item = %+v", decoded[0])
	}
}

func TestJSONExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("empty export = %q, want []", buf.String())
	}
}

func TestJSONExportPretty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(true).Export(context.Background(), testItems(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("pretty output is not indented")
	}
}

func TestJSONExportResult(t *testing.T) {
	result := &evidence.CollectionResult{
		CollectionID: "c-1",
		CollectedAt:  time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Evidence:     testItems(),
		Summary: evidence.CollectionSummary{
			BySource:  map[string]int{"audit:log-acme-prod-aaaaaaaa": 2},
			ByControl: map[string]int{"CC6.1": 2, "CC6.6": 1},
			Verification: evidence.VerificationSummary{
				Verified: 1,
				Skipped:  1,
			},
		},
	}

	var buf bytes.Buffer
	if err := NewJSONExporter(false).ExportResult(context.Background(), result, &buf); err != nil {
		t.Fatalf("ExportResult() error: %v", err)
	}

	var decoded evidence.CollectionResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Summary.ByControl["CC6.6"] != 1 {
		t.Errorf("summary lost in export: %+v", decoded.Summary)
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), testItems(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "entry_id" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][4] != "secret_access" {
		t.Errorf("first data row action = %q, want secret_access", rows[1][4])
	}
	if rows[1][11] != "CC6.1;CC6.6" {
		t.Errorf("related controls cell = %q", rows[1][11])
	}
	if rows[2][12] != "skipped" {
		t.Errorf("verification cell = %q", rows[2][12])
	}
}

func TestCSVExportWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(false).Export(context.Background(), testItems(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("got %d rows, want 2", len(rows))
	}
}
