package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"invoiceqa/internal/logger"
	"invoiceqa/internal/metrics"
	"invoiceqa/internal/payment"
	"invoiceqa/pkg/models"
)

var payCmd = &cobra.Command{
	Use:   "pay <command>",
	Short: "Mark invoices paid or unpaid in the ledger",
	Long: `Apply a payment status command to the Google Sheet.

The command names one or more invoices and a status, optionally with a
payment date in dd/mm/yyyy. Invoices marked paid without a date get today's
date. Every line of a matched invoice is updated.

Required environment variables:
  GOOGLE_SHEET_URL - Google Sheets URL of the invoice ledger
  GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS - service account credentials`,
	Example: `  # Mark one invoice paid today
  invoiceqa pay "IV2601001 paid"

  # Several invoices with a payment date
  invoiceqa pay "IV-2601-001 IV-2601-002 paid 20/03/2026"

  # Show what would change
  invoiceqa pay "2601-003 unpaid" --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().Bool("dry-run", false, "Parse the command but don't write to the sheet")
	payCmd.Flags().String("lang", "en", "Reply language: en or zh")
}

func runPay(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("pay")

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	langFlag, _ := cmd.Flags().GetString("lang")
	lang := models.ParseLanguage(langFlag)

	text := strings.Join(args, " ")
	command := payment.ParseCommand(text)
	if command == nil {
		return fmt.Errorf("not a payment command: %q (expected an invoice number and paid or unpaid)", text)
	}
	command.WithDefaultDate(time.Now())

	log.Info().
		Strs("invoices", command.InvoiceNumbers).
		Str("status", command.Status).
		Str("payment_date", command.PaymentDate).
		Bool("dry_run", dryRun).
		Msg("Payment command parsed")

	if dryRun {
		fmt.Printf("Invoices: %s\n", strings.Join(command.InvoiceNumbers, ", "))
		fmt.Printf("Status:   %s\n", command.Status)
		if command.PaymentDate != "" {
			fmt.Printf("Date:     %s\n", command.PaymentDate)
		}
		return nil
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, err := a.updater.Apply(ctx, command)
	if err != nil {
		metrics.PaymentUpdates.WithLabelValues(command.Status, "error").Inc()
		return fmt.Errorf("payment update failed: %w", err)
	}
	metrics.PaymentUpdates.WithLabelValues(command.Status, "ok").Inc()

	if summary.RowsUpdated() > 0 {
		if err := a.source.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate ledger cache")
		}
	}

	fmt.Println(a.formatter.PaymentUpdate(summary, lang))
	return nil
}
