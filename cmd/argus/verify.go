package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"argus-hq/argus/pkg/audit"
	auditlog "argus-hq/argus/pkg/audit/log"
	"argus-hq/argus/pkg/cli"
	"github.com/spf13/cobra"
)

var verifyFlags struct {
	format string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify audit chain integrity",
	Long: `Walk the configured tenant's audit log and verify the hash chain.

Every entry's content hash is recomputed and its previous-hash link,
sequence, and entry ID are checked against the stored values. The command
exits non-zero when the chain is broken and reports the first invalid
sequence.

Examples:
  # Verify the configured tenant's log
  argus verify

  # Machine-readable result
  argus verify --format json`,
	RunE: verifyAuditChain,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyFlags.format, "format", "text", "output format: text, json")
}

func verifyAuditChain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openAuditStorage(cfg)
	if err != nil {
		return cli.NewCommandError("verify", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	l, err := auditlog.Open(ctx, store, cfg.Tenant.ID, cfg.Tenant.Scope, auditLogConfig(cfg), slog.Default(), nil)
	if err != nil {
		return cli.NewCommandError("verify", err)
	}

	result, verifyErr := l.Verify(ctx)
	if result == nil {
		return cli.NewCommandError("verify", verifyErr)
	}

	if verifyFlags.format == "json" {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result); err != nil {
			return err
		}
	} else {
		fmt.Printf("Log: %s\n", l.ID())
		if result.Valid {
			fmt.Printf("✓ Chain valid (%d entries verified)\n", result.EntriesVerified)
		} else {
			fmt.Printf("✗ Chain broken after %d verified entries\n", result.EntriesVerified)
			if result.FirstInvalidSequence != nil {
				fmt.Printf("  First invalid sequence: %d\n", *result.FirstInvalidSequence)
			}
			if result.Error != "" {
				fmt.Printf("  Error: %s\n", result.Error)
			}
		}
	}

	if !result.Valid {
		var cie *audit.ChainIntegrityError
		if errors.As(verifyErr, &cie) {
			return cli.NewCommandError("verify", cie)
		}
		return cli.NewCommandError("verify", fmt.Errorf("chain verification failed: %s", result.Error))
	}
	return nil
}
