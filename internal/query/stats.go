package query

import (
	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// StatsResult counts invoices by payment status
type StatsResult struct {
	TotalInvoices int
	PaidCount     int
	UnpaidCount   int
	PaidAmount    decimal.Decimal
	UnpaidAmount  decimal.Decimal
	Unpaid        []InvoiceSummary
}

// Stats summarizes every invoice in the ledger by status
func Stats(t ledger.Table) (*StatsResult, error) {
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber, ledger.FieldPaymentStatus)
	if err != nil {
		return nil, err
	}

	invoices := ledger.Aggregate(rows, cols, nil)
	result := &StatsResult{
		TotalInvoices: invoices.Len(),
		PaidAmount:    decimal.Zero,
		UnpaidAmount:  decimal.Zero,
	}
	for _, inv := range invoices.All() {
		switch inv.PaymentStatus() {
		case ledger.StatusPaid:
			result.PaidCount++
			result.PaidAmount = result.PaidAmount.Add(inv.Total)
		case ledger.StatusUnpaid:
			result.UnpaidCount++
			result.UnpaidAmount = result.UnpaidAmount.Add(inv.Total)
			result.Unpaid = append(result.Unpaid, summarize(inv))
		}
	}
	return result, nil
}
