package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradefin/cfaam/internal/agreement"
	"github.com/tradefin/cfaam/internal/extraction"
)

// ingestCmd extracts and stores a local approval document.
var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Extract and store an approval document",
	Long: `Extracts compliance fields from a local approval document, computes the
reporting deadlines, and stores the agreement record.

Example:
  go run ./cmd/cfaam ingest approval.html --recipient officer@bank.example`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var ingestRecipient string

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestRecipient, "recipient", "", "notification recipient email")
}

func runIngest(cmd *cobra.Command, args []string) error {
	deps, err := initEngine()
	if err != nil {
		return err
	}
	defer deps.Close()

	extractor, err := extraction.NewService(deps.cfg, deps.log)
	if err != nil {
		return fmt.Errorf("init extraction service: %w", err)
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	ctx := context.Background()

	fields, err := extractor.Extract(ctx, filepath.Base(path), data)
	if err != nil {
		return fmt.Errorf("extract fields: %w", err)
	}

	record, err := agreement.FromExtraction(fields, ingestRecipient, time.Now())
	if err != nil {
		return fmt.Errorf("build agreement: %w", err)
	}

	if err := deps.repo.Upsert(ctx, record); err != nil {
		return fmt.Errorf("store agreement: %w", err)
	}

	fmt.Printf("Stored agreement %s\n", record.Reference)
	fmt.Printf("  Importer:        %s\n", record.ImporterName)
	fmt.Printf("  Submitted:       %s\n", record.SubmittedDate)
	fmt.Printf("  Frequency:       %s\n", record.ReturnsFrequency)
	if !record.NextDueDate.IsZero() {
		fmt.Printf("  Next due:        %s\n", record.NextDueDate)
		fmt.Printf("  Alert date:      %s\n", record.ComplianceAlertDate)
	} else {
		fmt.Println("  Next due:        (frequency not recognized; no deadline computed)")
	}
	if !record.ExpiryDate.IsZero() {
		fmt.Printf("  Facility expiry: %s\n", record.ExpiryDate)
	}

	return nil
}
