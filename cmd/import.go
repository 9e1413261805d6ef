package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoiceqa/internal/format"
	"invoiceqa/internal/importer"
	"invoiceqa/internal/logger"
	"invoiceqa/pkg/models"
)

var importCmd = &cobra.Command{
	Use:   "import [csv-file]",
	Short: "Import an accounting-system CSV export into the ledger",
	Long: `Import a CSV export from the accounting system into the ledger worksheet.

Two exports are supported:
- Invoice detail listing: new line items are appended, rows already in the
  ledger (same invoice number and item code or description) are skipped.
  The worksheet and its header are created when missing.
- Outstanding report (file name contains "outstanding"): invoices with
  nothing outstanding are marked Paid, the rest Unpaid.

Required environment variables:
  GOOGLE_SHEET_URL - Google Sheets URL of the invoice ledger
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account credentials`,
	Example: `  # Append new invoice lines
  invoiceqa import ./InvoiceDetailListing.csv

  # Update payment status from an outstanding report
  invoiceqa import ./Outstanding_Mar.csv

  # Force the report kind and preview the result
  invoiceqa import ./export.csv --kind outstanding --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("kind", "", "Export kind: detail or outstanding (default: from file name)")
	importCmd.Flags().Bool("dry-run", false, "Compare with the ledger but don't write to the sheet")
	importCmd.Flags().String("lang", "en", "Reply language: en or zh")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	path := args[0]
	kindFlag, _ := cmd.Flags().GetString("kind")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	langFlag, _ := cmd.Flags().GetString("lang")
	lang := models.ParseLanguage(langFlag)

	kind := importer.Kind(kindFlag)
	switch kind {
	case "":
		kind = importer.DetectKind(path)
	case importer.KindDetail, importer.KindOutstanding:
	default:
		return fmt.Errorf("invalid --kind %q: use detail or outstanding", kindFlag)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	log.Info().
		Str("file", path).
		Str("kind", string(kind)).
		Bool("dry_run", dryRun).
		Msg("Starting import")

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	im := importer.New(a.sheets)

	var text string
	changed := false
	switch kind {
	case importer.KindOutstanding:
		plan, err := im.ImportOutstanding(ctx, file, dryRun)
		if err != nil {
			return err
		}
		changed = plan.RowsUpdated > 0
		text = a.formatter.OutstandingImport(plan, lang)
	default:
		res, err := im.ImportDetail(ctx, file, dryRun)
		if err != nil {
			return err
		}
		changed = res.NewRecords > 0
		text = a.formatter.DetailImport(res, a.sheets.Worksheet(), lang)
	}

	if changed && !dryRun {
		if err := a.source.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate ledger cache")
		}
	}

	if dryRun {
		fmt.Println(format.Pick(lang, "(dry run, nothing written)", "（试运行，未写入）"))
	}
	fmt.Println(text)
	return nil
}
