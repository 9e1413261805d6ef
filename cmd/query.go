package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/logger"
	"invoiceqa/internal/query"
	"invoiceqa/pkg/models"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a ledger query without the language model",
	Long: `Run one of the ledger queries directly and print the formatted reply.

Only Google Sheets credentials are needed; the language model is not called.`,
	Example: `  invoiceqa query unpaid
  invoiceqa query overdue --days 45 --lang zh
  invoiceqa query customer "ABC TRADING" --unpaid-only`,
}

// queryFunc answers one query from a ledger snapshot
type queryFunc func(cmd *cobra.Command, args []string, a *app, t ledger.Table, lang models.Language) (string, error)

func newQueryCmd(use, short string, args cobra.PositionalArgs, run queryFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, posArgs []string) error {
			return runQuery(cmd, posArgs, run)
		},
	}
}

func runQuery(cmd *cobra.Command, args []string, run queryFunc) error {
	log := logger.WithComponent("query")
	ctx := context.Background()

	langFlag, _ := cmd.Flags().GetString("lang")
	lang := models.ParseLanguage(langFlag)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.source.ReadTable(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	start := time.Now()
	text, err := run(cmd, args, a, table, lang)
	if err != nil {
		return err
	}

	log.Info().
		Str("query", cmd.Name()).
		Dur("duration", time.Since(start)).
		Msg("Query completed")

	fmt.Println(text)
	return nil
}

// noData turns query.ErrNoData into a nil result, which the formatter renders
// as not found or unreadable
func noData(err error) error {
	if errors.Is(err, query.ErrNoData) {
		return nil
	}
	return err
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.PersistentFlags().String("lang", "en", "Reply language: en or zh")

	unpaidCmd := newQueryCmd("unpaid", "List all unpaid invoices by customer", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			res, err := query.AllUnpaid(t)
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.AllUnpaid(res, lang), nil
		})

	rangeCmd := newQueryCmd("range <start> <end>", "List sales between two dates (dd/mm/yyyy)", cobra.ExactArgs(2),
		func(cmd *cobra.Command, args []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			res, err := query.DateRange(t, args[0], args[1])
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.DateRange(res, lang), nil
		})

	recentCmd := newQueryCmd("recent", "List sales of the last N days", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			days, _ := cmd.Flags().GetInt("days")
			res, err := query.Recent(t, days, time.Now())
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.DateRange(res, lang), nil
		})
	recentCmd.Flags().Int("days", 7, "Number of days to look back")

	monthCmd := newQueryCmd("month", "List sales of the current month", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			res, err := query.CurrentMonth(t, time.Now())
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.DateRange(res, lang), nil
		})

	productCmd := newQueryCmd("product <term>", "Find invoices with a matching product description", cobra.MinimumNArgs(1),
		func(cmd *cobra.Command, args []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			term := strings.Join(args, " ")
			res, err := query.ProductSearch(t, term)
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.ProductSearch(res, term, lang), nil
		})

	topCmd := newQueryCmd("top", "Rank customers by revenue or invoice count", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			limit, _ := cmd.Flags().GetInt("limit")
			sortBy, _ := cmd.Flags().GetString("sort")
			by := query.SortBy(sortBy)
			if by != query.SortByRevenue && by != query.SortByInvoices {
				return "", fmt.Errorf("invalid --sort %q: use revenue or invoices", sortBy)
			}
			res, err := query.TopCustomers(t, limit, by)
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.TopCustomers(res, lang), nil
		})
	topCmd.Flags().Int("limit", query.DefaultTopLimit, "Number of customers to list")
	topCmd.Flags().String("sort", string(query.SortByRevenue), "Ranking key: revenue or invoices")

	inactiveCmd := newQueryCmd("inactive", "List customers without purchases in N days", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			days, _ := cmd.Flags().GetInt("days")
			res, err := query.InactiveCustomers(t, days, time.Now())
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.InactiveCustomers(res, lang), nil
		})
	inactiveCmd.Flags().Int("days", query.DefaultInactiveDays, "Inactivity threshold in days")

	overdueCmd := newQueryCmd("overdue", "List unpaid invoices older than N days", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			days, _ := cmd.Flags().GetInt("days")
			res, err := query.Overdue(t, days, time.Now())
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.Overdue(res, lang), nil
		})
	overdueCmd.Flags().Int("days", query.DefaultOverdueDays, "Days after which an unpaid invoice is overdue")

	statusCmd := newQueryCmd("status <customer>", "Show what a customer still owes", cobra.MinimumNArgs(1),
		func(cmd *cobra.Command, args []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			customer := strings.Join(args, " ")
			res, err := query.PaymentStatus(t, customer)
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.PaymentStatus(res, customer, lang), nil
		})

	invoiceCmd := newQueryCmd("invoice <number>", "Show one invoice with its line items", cobra.ExactArgs(1),
		func(cmd *cobra.Command, args []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			inv, err := query.InvoiceDetails(t, args[0])
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.InvoiceDetails(inv, lang), nil
		})

	customerCmd := newQueryCmd("customer <name>", "Show a customer's invoice history", cobra.MinimumNArgs(1),
		func(cmd *cobra.Command, args []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			unpaidOnly, _ := cmd.Flags().GetBool("unpaid-only")
			paidOnly, _ := cmd.Flags().GetBool("paid-only")
			limit, _ := cmd.Flags().GetInt("limit")
			if unpaidOnly && paidOnly {
				return "", fmt.Errorf("--unpaid-only and --paid-only are mutually exclusive")
			}
			res, err := query.CustomerHistory(t, strings.Join(args, " "), query.HistoryFilter{
				UnpaidOnly: unpaidOnly,
				PaidOnly:   paidOnly,
				Limit:      limit,
			})
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.CustomerHistory(res, lang), nil
		})
	customerCmd.Flags().Bool("unpaid-only", false, "Only list unpaid invoices")
	customerCmd.Flags().Bool("paid-only", false, "Only list paid invoices")
	customerCmd.Flags().Int("limit", query.DefaultHistoryLimit, "Number of invoices to list")

	statsCmd := newQueryCmd("stats", "Show ledger totals", cobra.NoArgs,
		func(cmd *cobra.Command, _ []string, a *app, t ledger.Table, lang models.Language) (string, error) {
			res, err := query.Stats(t)
			if err := noData(err); err != nil {
				return "", err
			}
			return a.formatter.Stats(res, lang), nil
		})

	queryCmd.AddCommand(unpaidCmd, rangeCmd, recentCmd, monthCmd, productCmd, topCmd,
		inactiveCmd, overdueCmd, statusCmd, invoiceCmd, customerCmd, statsCmd)
}
