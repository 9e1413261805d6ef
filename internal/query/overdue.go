package query

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// Severity bands overdue invoices for display
type Severity int

const (
	SeverityModerate Severity = iota // up to 30 days
	SeverityHigh                     // more than 30 days
	SeverityCritical                 // more than 60 days
)

// OverdueInvoice is an unpaid invoice past the cutoff
type OverdueInvoice struct {
	Number      string
	Customer    string
	Date        string
	Amount      decimal.Decimal
	DaysOverdue int
}

// Severity bands DaysOverdue
func (o OverdueInvoice) Severity() Severity {
	switch {
	case o.DaysOverdue > 60:
		return SeverityCritical
	case o.DaysOverdue > 30:
		return SeverityHigh
	default:
		return SeverityModerate
	}
}

// OverdueResult lists unpaid invoices older than the cutoff
type OverdueResult struct {
	CutoffDays  int
	TotalAmount decimal.Decimal
	Invoices    []OverdueInvoice // most overdue first
}

// OverdueCount is the number of overdue invoices
func (r *OverdueResult) OverdueCount() int {
	return len(r.Invoices)
}

// Overdue returns unpaid invoices dated strictly before now minus days.
// DaysOverdue counts whole days from the document date to now.
func Overdue(t ledger.Table, days int, now time.Time) (*OverdueResult, error) {
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber, ledger.FieldPaymentStatus, ledger.FieldDocumentDate)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultOverdueDays
	}
	loc := now.Location()
	cutoff := now.AddDate(0, 0, -days)

	unpaid := statusIs(cols, ledger.StatusUnpaid)
	pastCutoff := func(row []string) bool {
		date, ok := ledger.ParseDateIn(ledger.Cell(row, cols.Get(ledger.FieldDocumentDate)), loc)
		return ok && date.Before(cutoff)
	}
	invoices := ledger.Aggregate(rows, cols, both(unpaid, pastCutoff))

	result := &OverdueResult{CutoffDays: days, TotalAmount: invoices.Total()}
	for _, inv := range invoices.All() {
		date, _ := inv.DateIn(loc)
		customer := inv.Customer
		if customer == "" {
			customer = unknownCustomer
		}
		result.Invoices = append(result.Invoices, OverdueInvoice{
			Number:      inv.Number,
			Customer:    customer,
			Date:        inv.Date,
			Amount:      inv.Total,
			DaysOverdue: ledger.DaysSince(date, now),
		})
	}

	sort.SliceStable(result.Invoices, func(i, j int) bool {
		return result.Invoices[i].DaysOverdue > result.Invoices[j].DaysOverdue
	})
	return result, nil
}
