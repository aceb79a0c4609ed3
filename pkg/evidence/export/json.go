package export

import (
	"context"
	"encoding/json"
	"io"

	"argus-hq/argus/pkg/evidence"
)

// JSONExporter exports collected evidence as a JSON array.
type JSONExporter struct {
	// Pretty enables indented output.
	Pretty bool
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export implements evidence.Exporter.
func (e *JSONExporter) Export(ctx context.Context, items []*evidence.CollectedEvidence, w io.Writer) error {
	if len(items) == 0 {
		if _, err := w.Write([]byte("[]")); err != nil {
			return evidence.NewExportError("json", 0, err)
		}
		return nil
	}

	var (
		data []byte
		err  error
	)
	if e.Pretty {
		data, err = json.MarshalIndent(items, "", "  ")
	} else {
		data, err = json.Marshal(items)
	}
	if err != nil {
		return evidence.NewExportError("json", len(items), err)
	}

	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(items), err)
	}
	return nil
}

// ExportResult exports a full collection result, including the summary.
func (e *JSONExporter) ExportResult(ctx context.Context, result *evidence.CollectionResult, w io.Writer) error {
	var (
		data []byte
		err  error
	)
	if e.Pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return evidence.NewExportError("json", len(result.Evidence), err)
	}

	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(result.Evidence), err)
	}
	return nil
}
