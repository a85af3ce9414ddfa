// Package cli implements the kansactl command tree: offline tooling for
// inspecting what the engine would send to the search cluster — compiled
// query bodies, index routing, and the managed template. No command talks
// to a cluster.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kansactl",
	Short: "Inspection tooling for the kansa action store",
	Long: "Compiles action filters into search bodies, resolves index routing for\n" +
		"date ranges, and prints the managed index template. Everything runs\n" +
		"offline; use it to debug queries before they hit a cluster.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
