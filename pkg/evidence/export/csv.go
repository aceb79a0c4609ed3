package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"argus-hq/argus/pkg/evidence"
)

// CSVExporter exports collected evidence as CSV rows. Nested fields are
// flattened; related control IDs become a semicolon-separated list.
type CSVExporter struct {
	// IncludeHeader writes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Export implements evidence.Exporter.
func (e *CSVExporter) Export(ctx context.Context, items []*evidence.CollectedEvidence, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return evidence.NewExportError("csv", len(items), err)
		}
	}

	for _, item := range items {
		if err := writer.Write(itemToRow(item)); err != nil {
			return evidence.NewExportError("csv", len(items), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return evidence.NewExportError("csv", len(items), err)
	}
	return nil
}

func headerRow() []string {
	return []string{
		"entry_id", "log_id", "timestamp",
		"category", "action_type", "actor_id", "outcome",
		"sensitive", "high_risk",
		"source", "relevance_score", "related_controls", "chain_verification",
	}
}

func itemToRow(item *evidence.CollectedEvidence) []string {
	return []string{
		item.Ref.EntryID,
		item.Ref.LogID,
		item.Ref.Timestamp.UTC().Format(time.RFC3339),
		string(item.Ref.Category),
		item.Ref.ActionType,
		item.Ref.ActorID,
		item.Ref.Outcome,
		fmt.Sprintf("%t", item.Ref.Sensitive),
		fmt.Sprintf("%t", item.Ref.HighRisk),
		item.Source,
		fmt.Sprintf("%.2f", item.RelevanceScore),
		strings.Join(item.RelatedControlIDs, ";"),
		string(item.ChainVerification),
	}
}
