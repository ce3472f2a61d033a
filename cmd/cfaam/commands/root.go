package commands

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cfaam",
	Short: "CFAAM trade finance compliance deadline and reminder engine",
	Long: `CFAAM compliance engine

Extracts structured compliance data from trade finance approval documents,
computes regulatory reporting deadlines, and issues timed email reminders
and escalations as deadlines approach.

Examples:
  go run ./cmd/cfaam api
  go run ./cmd/cfaam scan --date 2026-08-28
  go run ./cmd/cfaam ingest approval.html --recipient officer@bank.example
  go run ./cmd/cfaam scheduler start`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}
