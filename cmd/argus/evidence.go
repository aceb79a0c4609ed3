package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"argus-hq/argus/pkg/audit"
	auditlog "argus-hq/argus/pkg/audit/log"
	"argus-hq/argus/pkg/cli"
	"argus-hq/argus/pkg/evidence"
	"argus-hq/argus/pkg/evidence/export"
	"argus-hq/argus/pkg/evidence/tracestore"
	"github.com/spf13/cobra"
)

var evidenceFlags struct {
	control   string
	category  string
	timeRange string
	verify    bool
	limit     int
	format    string
	output    string
}

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Collect compliance evidence",
	Long: `Collect scored evidence for a compliance control from the audit log
and, when enabled, the agent decision-trace store.

Evidence items are scored by relevance and sorted highest first. Audit
entries explicitly tagged with the control ID are always included.

Time Range Format:
  RFC3339 interval format: "start/end"
  Example: "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

Examples:
  # Collect evidence for SOC 2 CC6.1 over a time range
  argus evidence --control CC6.1 --time-range "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

  # Collect by audit category instead of a mapped control
  argus evidence --category security --time-range "2026-08-01T00:00:00Z/2026-09-01T00:00:00Z"

  # Verify chain integrity of surfaced entries and export to CSV
  argus evidence --control CC6.1 --verify --format csv --output evidence.csv`,
	RunE: collectEvidence,
}

func init() {
	rootCmd.AddCommand(evidenceCmd)

	evidenceCmd.Flags().StringVar(&evidenceFlags.control, "control", "", "compliance control ID (e.g. CC6.1)")
	evidenceCmd.Flags().StringVar(&evidenceFlags.category, "category", "", "audit category instead of a control mapping")
	evidenceCmd.Flags().StringVar(&evidenceFlags.timeRange, "time-range", "", "time range (RFC3339 interval: start/end)")
	evidenceCmd.Flags().BoolVar(&evidenceFlags.verify, "verify", false, "verify chain integrity of surfaced entries")
	evidenceCmd.Flags().IntVar(&evidenceFlags.limit, "limit", 0, "max evidence items (0 = unlimited)")
	evidenceCmd.Flags().StringVar(&evidenceFlags.format, "format", "json", "output format: json, csv")
	evidenceCmd.Flags().StringVarP(&evidenceFlags.output, "output", "o", "", "output file (default: stdout)")
}

func collectEvidence(cmd *cobra.Command, args []string) error {
	if evidenceFlags.control == "" && evidenceFlags.category == "" {
		return fmt.Errorf("either --control or --category is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	l, err := auditlog.Open(ctx, store, cfg.Tenant.ID, cfg.Tenant.Scope, auditLogConfig(cfg), slog.Default(), nil)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}

	sources := []evidence.Source{evidence.NewAuditSource(l)}
	if cfg.Evidence.TraceStore.Enabled {
		traceStore, err := tracestore.NewSQLiteStore(&tracestore.SQLiteStoreConfig{
			Path: cfg.Evidence.TraceStore.Path,
		})
		if err != nil {
			return cli.NewCommandError("evidence", fmt.Errorf("open trace store: %w", err))
		}
		defer traceStore.Close()
		sources = append(sources, tracestore.NewTraceSource(traceStore))
	}

	req := &evidence.CollectionRequest{
		TenantID:        cfg.Tenant.ID,
		ControlID:       evidenceFlags.control,
		ControlCategory: audit.Category(evidenceFlags.category),
		VerifyChain:     evidenceFlags.verify,
		Limit:           evidenceFlags.limit,
	}
	if evidenceFlags.timeRange != "" {
		req.StartTime, req.EndTime, err = parseTimeRange(evidenceFlags.timeRange)
		if err != nil {
			return err
		}
	} else {
		// Default window: the last 30 days.
		req.EndTime = time.Now()
		req.StartTime = req.EndTime.AddDate(0, 0, -30)
	}

	collector := evidence.NewCollector(sources, slog.Default(), nil)
	result, err := collector.Collect(ctx, req)
	if err != nil {
		return cli.NewCommandError("evidence", err)
	}

	out := os.Stdout
	if evidenceFlags.output != "" {
		out, err = os.Create(evidenceFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer out.Close()
	}

	switch evidenceFlags.format {
	case "json":
		if err := export.NewJSONExporter(true).ExportResult(ctx, result, out); err != nil {
			return cli.NewCommandError("evidence", err)
		}
	case "csv":
		if err := export.NewCSVExporter(true).Export(ctx, result.Evidence, out); err != nil {
			return cli.NewCommandError("evidence", err)
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: json, csv)", evidenceFlags.format)
	}

	if len(result.FailedSources) > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d source(s) failed: %v\n", len(result.FailedSources), result.FailedSources)
	}
	return nil
}
