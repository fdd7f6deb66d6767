package main

import (
	"github.com/spf13/cobra"
)

var (
	quiet   bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "malscan",
	Short: "Parallel filesystem malware-signature scanner",
	Long: `malscan scans filesystem trees for malware by matching file contents
against a set of regular-expression signatures, producing structured
per-file match reports for server administrators hunting compromised web
hosting content across potentially millions of files.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the startup banner and progress output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
