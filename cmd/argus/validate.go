package main

import (
	"errors"
	"fmt"
	"os"

	"argus-hq/argus/pkg/cli"
	"argus-hq/argus/pkg/policy/schema"
	"argus-hq/argus/pkg/policy/source"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate policy files",
	Long: `Validate policy YAML files without loading them into an engine.

The argument may be a single policy file or a directory. Directory loads
collect every file's errors so one bad file does not hide the rest.

Examples:
  # Validate a policy directory
  argus validate ./policies

  # Validate a single file
  argus validate policies/deployments.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: validatePolicies,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validatePolicies(cmd *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return cli.NewCommandError("validate", err)
	}

	loader := source.NewLoader(nil)

	var docs []*schema.PolicyDocument
	if info.IsDir() {
		docs, err = loader.LoadDirectory(path)
	} else {
		var doc *schema.PolicyDocument
		doc, err = loader.LoadFile(path)
		if doc != nil {
			docs = []*schema.PolicyDocument{doc}
		}
	}

	if err != nil {
		var errList *source.ErrorList
		if errors.As(err, &errList) {
			for _, loadErr := range errList.Errors {
				fmt.Fprintf(os.Stderr, "✗ %v\n", loadErr)
			}
			return cli.NewCommandError("validate", fmt.Errorf("%d policy file(s) failed validation", len(errList.Errors)))
		}
		return cli.NewCommandError("validate", err)
	}

	ruleCount := 0
	for _, doc := range docs {
		ruleCount += len(doc.Rules)
		if verbose {
			fmt.Printf("✓ %s (%d rules)\n", doc.Name, len(doc.Rules))
		}
	}

	fmt.Printf("✓ %d document(s) valid (%d rules)\n", len(docs), ruleCount)
	return nil
}
