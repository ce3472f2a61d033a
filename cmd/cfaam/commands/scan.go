package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradefin/cfaam/internal/contracts"
)

// scanCmd runs one reminder scan from the command line.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a reminder scan now",
	Long: `Runs one reminder scan and prints the run summary.

The scan is idempotent per logical day: re-running it without record changes
sends no additional notifications.

Example:
  go run ./cmd/cfaam scan
  go run ./cmd/cfaam scan --date 2026-08-28`,
	RunE: runScan,
}

var scanDate string

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanDate, "date", "", "logical run date (YYYY-MM-DD, default today)")
}

func runScan(cmd *cobra.Command, args []string) error {
	deps, err := initEngine()
	if err != nil {
		return err
	}
	defer deps.Close()

	ctx := context.Background()

	var summary *contracts.RunSummary
	if scanDate != "" {
		day, err := contracts.ParseDate(scanDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		summary, err = deps.service.RunFor(ctx, day)
		if err != nil {
			return fmt.Errorf("run scan: %w", err)
		}
	} else {
		summary, err = deps.service.RunNow(ctx)
		if err != nil {
			return fmt.Errorf("run scan: %w", err)
		}
	}

	fmt.Printf("Run date:          %s\n", summary.RunDate)
	fmt.Printf("Records scanned:   %d\n", summary.RecordsScanned)
	fmt.Printf("Initial alerts:    %d\n", summary.InitialAlerts)
	fmt.Printf("Escalations:       %d\n", summary.Escalations)
	fmt.Printf("Expiry reminders:  %d\n", summary.ExpiryReminders)
	fmt.Printf("Emails sent:       %d\n", summary.EmailsSent)
	fmt.Printf("Errors:            %d\n", summary.ErrorCount())
	for _, e := range summary.Errors {
		fmt.Printf("  - %s [%s]: %s\n", e.Reference, e.Kind, e.Reason)
	}

	return nil
}
