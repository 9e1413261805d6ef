// Package query implements the invoice questions the bot answers without a
// language model: outstanding balances, date ranges, product sales, customer
// rankings, inactivity, overdue invoices and single-invoice lookups.
//
// Every operation is a pure function of a table snapshot and its parameters.
// A table without data rows, or without a column the operation cannot work
// without, yields ErrNoData. Unreadable cells never abort an operation; they
// count as zero or as an undated row.
package query

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// ErrNoData reports a table an operation cannot answer from
var ErrNoData = errors.New("no data")

// Defaults applied when a caller passes a non-positive window or limit
const (
	DefaultOverdueDays  = 30
	DefaultInactiveDays = 60
	DefaultTopLimit     = 10
	DefaultHistoryLimit = 20
)

const unknownCustomer = "Unknown"

// InvoiceSummary is one invoice as listed in a result
type InvoiceSummary struct {
	Number   string
	Customer string
	Date     string // original text
	Status   string
	Amount   decimal.Decimal
}

func summarize(inv *ledger.Invoice) InvoiceSummary {
	return InvoiceSummary{
		Number:   inv.Number,
		Customer: inv.Customer,
		Date:     inv.Date,
		Status:   inv.Status,
		Amount:   inv.Total,
	}
}

// resolve returns the rows and column map of t, or ErrNoData when the table
// has no data rows or lacks any of the required fields.
func resolve(t ledger.Table, required ...ledger.Field) ([][]string, ledger.ColumnMap, error) {
	if !t.HasData() {
		return nil, ledger.ColumnMap{}, ErrNoData
	}
	cols := ledger.Resolve(t.Header())
	if !cols.Has(required...) {
		return nil, ledger.ColumnMap{}, ErrNoData
	}
	return t.Rows(), cols, nil
}

// sortByDateDesc orders items newest first. Undated items go last; ties and
// undated items keep their original order.
func sortByDateDesc[T any](items []T, date func(T) (time.Time, bool)) {
	sort.SliceStable(items, func(i, j int) bool {
		di, oki := date(items[i])
		dj, okj := date(items[j])
		switch {
		case oki && okj:
			return di.After(dj)
		case oki:
			return true
		default:
			return false
		}
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func statusIs(cols ledger.ColumnMap, want ledger.Status) ledger.RowFilter {
	return func(row []string) bool {
		return ledger.ParseStatus(ledger.Cell(row, cols.Get(ledger.FieldPaymentStatus))) == want
	}
}

func customerMatches(cols ledger.ColumnMap, name string) ledger.RowFilter {
	return func(row []string) bool {
		return containsFold(ledger.Cell(row, cols.Get(ledger.FieldCustomerName)), name)
	}
}

func both(a, b ledger.RowFilter) ledger.RowFilter {
	return func(row []string) bool {
		return a(row) && b(row)
	}
}
