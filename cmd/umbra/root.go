package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "umbra",
	Short: "Umbra runs discrete-event network simulations.",
	Long: `Umbra runs discrete-event network simulations. A scenario file ` +
		`describes the hosts, the links between them, and the applications ` +
		`each host runs; umbra executes the scenario on a parallel ` +
		`round-based engine and records per-run statistics.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
