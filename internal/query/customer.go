package query

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// UnpaidInvoice is an outstanding invoice with its line descriptions
type UnpaidInvoice struct {
	Number string
	Date   string
	Amount decimal.Decimal
	Items  []string
}

// PaymentStatusResult partitions one customer's invoices into paid and unpaid
type PaymentStatusResult struct {
	Customer       string // the name asked about
	MatchedName    string // ledger name of the first matching invoice
	HasUnpaid      bool
	UnpaidInvoices []UnpaidInvoice
	TotalUnpaid    decimal.Decimal
	PaidCount      int
	TotalInvoices  int
}

// DisplayName prefers the ledger's spelling of the customer
func (r *PaymentStatusResult) DisplayName() string {
	if r.MatchedName != "" {
		return r.MatchedName
	}
	return r.Customer
}

// PaymentStatus reports what a customer (case-insensitive substring of the
// customer name) still owes. ErrNoData when nothing matches.
func PaymentStatus(t ledger.Table, customer string) (*PaymentStatusResult, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, ErrNoData
	}
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber, ledger.FieldPaymentStatus, ledger.FieldCustomerName)
	if err != nil {
		return nil, err
	}

	invoices := ledger.Aggregate(rows, cols, customerMatches(cols, customer))
	if invoices.Len() == 0 {
		return nil, ErrNoData
	}

	result := &PaymentStatusResult{
		Customer:      customer,
		TotalUnpaid:   decimal.Zero,
		TotalInvoices: invoices.Len(),
	}
	for _, inv := range invoices.All() {
		if result.MatchedName == "" {
			result.MatchedName = inv.Customer
		}
		switch inv.PaymentStatus() {
		case ledger.StatusUnpaid:
			result.UnpaidInvoices = append(result.UnpaidInvoices, UnpaidInvoice{
				Number: inv.Number,
				Date:   inv.Date,
				Amount: inv.Total,
				Items:  inv.Descriptions(),
			})
			result.TotalUnpaid = result.TotalUnpaid.Add(inv.Total)
		case ledger.StatusPaid:
			result.PaidCount++
		}
	}
	result.HasUnpaid = len(result.UnpaidInvoices) > 0
	return result, nil
}

// InvoiceDetails normalizes number and returns the matching invoice with all
// of its line items. ErrNoData when no row carries that number.
func InvoiceDetails(t ledger.Table, number string) (*ledger.Invoice, error) {
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber)
	if err != nil {
		return nil, err
	}
	normalized := ledger.NormalizeInvoiceNumber(number)
	if normalized == "" {
		return nil, ErrNoData
	}

	sameNumber := func(row []string) bool {
		return ledger.SameInvoice(ledger.Cell(row, cols.Get(ledger.FieldInvoiceNumber)), normalized)
	}
	inv, ok := ledger.Aggregate(rows, cols, sameNumber).Get(normalized)
	if !ok {
		return nil, ErrNoData
	}
	return inv, nil
}

// HistoryFilter narrows CustomerHistory
type HistoryFilter struct {
	UnpaidOnly bool
	PaidOnly   bool
	Limit      int // non-positive means DefaultHistoryLimit
}

// HistoryInvoice is one invoice in a customer's history
type HistoryInvoice struct {
	Number    string
	Date      string
	Status    string
	Total     decimal.Decimal
	ItemCount int
}

// CustomerHistoryResult is a customer's invoices, newest first
type CustomerHistoryResult struct {
	CustomerName  string
	TotalInvoices int // before the limit is applied
	TotalAmount   decimal.Decimal
	PaidCount     int
	UnpaidCount   int
	Invoices      []HistoryInvoice // at most Limit entries
}

// CustomerHistory lists invoices of customers whose name contains customer.
// Totals and counts cover every invoice passing the filter; only the list is
// truncated to the limit.
func CustomerHistory(t ledger.Table, customer string, filter HistoryFilter) (*CustomerHistoryResult, error) {
	customer = strings.TrimSpace(customer)
	if customer == "" {
		return nil, ErrNoData
	}
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber, ledger.FieldCustomerName)
	if err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	keep := customerMatches(cols, customer)
	switch {
	case filter.UnpaidOnly:
		keep = both(keep, statusIs(cols, ledger.StatusUnpaid))
	case filter.PaidOnly:
		keep = both(keep, statusIs(cols, ledger.StatusPaid))
	}
	invoices := ledger.Aggregate(rows, cols, keep)

	result := &CustomerHistoryResult{
		CustomerName:  customer,
		TotalInvoices: invoices.Len(),
		TotalAmount:   invoices.Total(),
	}
	var history []HistoryInvoice
	for _, inv := range invoices.All() {
		switch inv.PaymentStatus() {
		case ledger.StatusPaid:
			result.PaidCount++
		case ledger.StatusUnpaid:
			result.UnpaidCount++
		}
		history = append(history, HistoryInvoice{
			Number:    inv.Number,
			Date:      inv.Date,
			Status:    inv.Status,
			Total:     inv.Total,
			ItemCount: inv.ItemCount(),
		})
	}

	sortByDateDesc(history, func(h HistoryInvoice) (time.Time, bool) {
		return ledger.ParseDate(h.Date)
	})
	if len(history) > limit {
		history = history[:limit]
	}
	result.Invoices = history
	return result, nil
}
