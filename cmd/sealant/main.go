// Package main implements the sealant CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sealant/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "sealant",
	Short: "Subresource integrity for bundler output",
	Long:  `Sealant injects subresource integrity digests into the output of a modular bundler and annotates the generated HTML tags.`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(sealCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
