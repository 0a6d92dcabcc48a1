// Package cli implements the cpupd command-line interface using
// Cobra. Each subcommand maps to one daemon capability (serve, tree,
// admit, history).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cpupd",
	Short: "cpupd — CPU power-domain manager",
	Long: `cpupd manages a hierarchy of CPU power domains: it builds the
domain tree from a topology description, attaches CPUs, and decides
when a domain may power down given latency constraints and scheduled
wakeups.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
