package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "apiscout",
	Short: "Function discovery and completion backend for API assistants",
	Long: `apiscout answers natural-language questions about a function catalog.
It extracts keywords, ranks the catalog for relevant functions and
variables, and drives a multi-step model pipeline that picks the best
match and generates a worked usage example.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".apiscout.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
