package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Argus - policy engine with tamper-evident audit log",
	Long: `Argus is a multi-tenant policy-as-code engine with a hash-chained
audit log and compliance evidence collector.

It evaluates actions against declarative YAML policies, records every
governed action in an append-only, tamper-evident audit log, and collects
scored evidence for compliance controls like SOC 2 and ISO 27001.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "argus.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
