package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the base command. Subcommands (run-server, migrate,
// create, stats) register themselves via their own init functions,
// which avoids import cycles between cmd packages.
var RootCmd = &cobra.Command{
	Use:   "shortly",
	Short: "A URL shortener service",
	Long: `Shortly is a URL shortener backend: it allocates short codes,
serves redirects, and aggregates click analytics for the dashboard.`,
}

// Execute runs the CLI. Called from main.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
