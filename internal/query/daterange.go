package query

import (
	"time"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// DateRangeResult lists the invoices dated within an inclusive range
type DateRangeResult struct {
	StartDate     string
	EndDate       string
	TotalInvoices int
	TotalAmount   decimal.Decimal
	PaidCount     int
	UnpaidCount   int
	Invoices      []InvoiceSummary // newest first
}

// DateRange returns invoices whose document date falls between start and end,
// both DD/MM/YYYY and both inclusive. Undated rows are left out.
func DateRange(t ledger.Table, start, end string) (*DateRangeResult, error) {
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber, ledger.FieldDocumentDate)
	if err != nil {
		return nil, err
	}

	from, okFrom := ledger.ParseDate(start)
	to, okTo := ledger.ParseDate(end)
	if !okFrom || !okTo {
		return nil, ErrNoData
	}

	inRange := func(row []string) bool {
		date, ok := ledger.ParseDate(ledger.Cell(row, cols.Get(ledger.FieldDocumentDate)))
		return ok && !date.Before(from) && !date.After(to)
	}
	invoices := ledger.Aggregate(rows, cols, inRange)

	result := &DateRangeResult{
		StartDate:     start,
		EndDate:       end,
		TotalInvoices: invoices.Len(),
		TotalAmount:   invoices.Total(),
	}
	for _, inv := range invoices.All() {
		switch inv.PaymentStatus() {
		case ledger.StatusPaid:
			result.PaidCount++
		case ledger.StatusUnpaid:
			result.UnpaidCount++
		}
		result.Invoices = append(result.Invoices, summarize(inv))
	}

	sortByDateDesc(result.Invoices, func(s InvoiceSummary) (time.Time, bool) {
		return ledger.ParseDate(s.Date)
	})
	return result, nil
}

// Recent returns invoices dated from days ago up to and including today
func Recent(t ledger.Table, days int, now time.Time) (*DateRangeResult, error) {
	if days <= 0 {
		days = 7
	}
	today := ledger.StartOfDay(now)
	return DateRange(t, ledger.FormatDate(today.AddDate(0, 0, -days)), ledger.FormatDate(today))
}

// CurrentMonth returns invoices dated within the calendar month of now
func CurrentMonth(t ledger.Table, now time.Time) (*DateRangeResult, error) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return DateRange(t, ledger.FormatDate(first), ledger.FormatDate(last))
}
