package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	pitcrewlog "github.com/davetashner/pitcrew/internal/log"
)

// Global flag values.
var (
	verbose bool
	quiet   bool
	noColor bool
)

// rootCmd is the base command for pitcrew.
var rootCmd = &cobra.Command{
	Use:   "pitcrew",
	Short: "Security gate for Solidity pull requests",
	Long: `Pitcrew wires static analyzers (slither, mythril, oyente, aderyn) into a
GitHub App. It scans the Solidity files a pull request touches, compares the
results against the repository's stored baseline, and reports only what the
PR introduces, as a sticky comment and a commit check.

Run 'pitcrew serve' for the webhook receiver, 'pitcrew worker' for scan
workers, or 'pitcrew scan' to audit a working tree locally.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		pitcrewlog.Setup(verbose, quiet)
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}
