package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"argus-hq/argus/pkg/cli"
	"argus-hq/argus/pkg/policy/engine"
	"argus-hq/argus/pkg/policy/schema"
	"argus-hq/argus/pkg/policy/source"
	"github.com/spf13/cobra"
)

var simulateFlags struct {
	policyDir string
	format    string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate <request.json>",
	Short: "Dry-run a request against the policy set",
	Long: `Evaluate a request file against the loaded policies without side effects.

The simulation evaluates every enabled rule, including rules a live
evaluation would have skipped after its terminating match, and reports
per-rule and per-condition detail alongside the decision a live
evaluation would have produced.

The request file is a JSON evaluation request:

  {
    "actor": {"id": "alice", "roles": ["developer"]},
    "action": {"name": "deploy"},
    "resource": {"type": "service", "id": "payments", "attributes": {"env": "production"}}
  }

Examples:
  # Simulate against the configured policy directory
  argus simulate request.json

  # Simulate against another policy directory
  argus simulate request.json --policies ./staged-policies

  # Full rule-by-rule detail as JSON
  argus simulate request.json --format json`,
	Args: cobra.ExactArgs(1),
	RunE: simulateRequest,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateFlags.policyDir, "policies", "", "policy directory (uses config if not specified)")
	simulateCmd.Flags().StringVar(&simulateFlags.format, "format", "text", "output format: text, json")
}

func simulateRequest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	policyDir := simulateFlags.policyDir
	if policyDir == "" {
		policyDir = cfg.Policy.Dir
	}

	eng, err := engine.New(engineConfig(cfg), slog.Default(), nil)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	docs, err := source.NewLoader(nil).LoadDirectory(policyDir)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	for _, doc := range docs {
		if err := eng.Load(doc); err != nil {
			return cli.NewCommandError("simulate", fmt.Errorf("load document %q: %w", doc.Name, err))
		}
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}
	var req schema.EvaluationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return cli.NewCommandError("simulate", fmt.Errorf("parse request file: %w", err))
	}

	result, err := eng.DryRun(cmd.Context(), &req)
	if err != nil {
		return cli.NewCommandError("simulate", err)
	}

	if simulateFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, result)
	}
	printDryRun(result, len(docs))
	return nil
}

func printDryRun(result *engine.DryRunResult, docCount int) {
	decision := result.WouldApply

	fmt.Printf("Documents loaded: %d\n", docCount)
	fmt.Println()
	fmt.Printf("Decision: %s", decision.Effect)
	if decision.Allowed {
		fmt.Print(" (allowed)")
	} else {
		fmt.Print(" (not allowed)")
	}
	fmt.Println()
	if decision.Reason != "" {
		fmt.Printf("Reason: %s\n", decision.Reason)
	}
	if decision.MatchedRule != nil {
		fmt.Printf("Matched rule: %s/%s\n", decision.MatchedRule.DocumentName, decision.MatchedRule.RuleID)
	}
	if actions := decision.RequiredActions; actions != nil {
		if actions.ApprovalsNeeded > 0 {
			fmt.Printf("Approvals needed: %d\n", actions.ApprovalsNeeded)
		}
		if len(actions.MissingScopes) > 0 {
			fmt.Printf("Missing approval scopes: %v\n", actions.MissingScopes)
		}
		if len(actions.NotificationChannels) > 0 {
			fmt.Printf("Notify: %v\n", actions.NotificationChannels)
		}
	}

	fmt.Println()
	fmt.Printf("Rules evaluated: %d\n", len(result.Rules))
	for _, rule := range result.Rules {
		marker := " "
		if rule.Matched {
			marker = "*"
		}
		fmt.Printf("  %s [%4d] %s/%s → %s\n", marker, rule.Priority, rule.DocumentName, rule.RuleID, rule.Effect)
	}
}
