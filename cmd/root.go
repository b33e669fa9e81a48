// Package cmd holds the catalog command tree: serve runs the HTTP API and
// browse prints one page of the catalog in the terminal.
package cmd

import (
	"os"

	"github.com/giygas/medications-catalog/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Browse and serve the medication catalog",
	Long: `catalog loads the medication list from the upstream /table-data endpoint
and lets you filter it by name, description or manufacturer, sort it by price
and page through it, either over HTTP (serve) or in the terminal (browse).`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(config.LoadDotEnv)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(browseCmd)
}
