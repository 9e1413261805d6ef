package importer

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/payment"
)

// Outstanding is one line of an outstanding report: what is still owed on
// an invoice
type Outstanding struct {
	InvoiceNumber string
	Total         string
	Amount        decimal.Decimal
}

// ParseOutstandingCSV reads an outstanding report with the columns invoice
// number, total and outstanding amount. Lines whose first cell is not an
// IV- invoice number are skipped; an unreadable amount counts as zero.
func ParseOutstandingCSV(r io.Reader) ([]Outstanding, error) {
	const op = "ParseOutstandingCSV"

	records, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var items []Outstanding
	for _, rec := range records {
		number := field(rec, 0)
		if !strings.HasPrefix(strings.ToUpper(number), ledger.InvoicePrefix+"-") {
			continue
		}
		amount := ledger.ParseAmount(field(rec, 2))
		items = append(items, Outstanding{
			InvoiceNumber: ledger.NormalizeInvoiceNumber(number),
			Total:         field(rec, 1),
			Amount:        amount,
		})
	}
	if len(items) == 0 {
		return nil, ErrNoRecords
	}
	return items, nil
}

// StatusPlan is the set of cell changes an outstanding report implies
type StatusPlan struct {
	Updates     []ledger.CellUpdate
	RowsUpdated int
	PaidCount   int // ledger rows whose invoice has nothing outstanding
	UnpaidCount int // ledger rows whose invoice still has an amount outstanding
}

// PlanOutstanding compares the ledger against items. Invoices with nothing
// outstanding become Paid, dated with the invoice date; the rest become
// Unpaid with the payment date cleared. Rows already in the target status
// are left alone.
func PlanOutstanding(t ledger.Table, items []Outstanding) (*StatusPlan, error) {
	const op = "PlanOutstanding"

	cols := ledger.Resolve(t.Header())
	numberCol := cols.Get(ledger.FieldInvoiceNumber)
	statusCol := cols.Get(ledger.FieldPaymentStatus)
	if !numberCol.IsFound() || !statusCol.IsFound() {
		return nil, fmt.Errorf("%s: %w", op, payment.ErrNoStatusColumn)
	}
	statusIdx, _ := statusCol.Index()
	dateIdx, hasPaymentDate := cols.Get(ledger.FieldPaymentDate).Index()
	docDateCol := cols.Get(ledger.FieldDocumentDate)

	outstanding := make(map[string]decimal.Decimal, len(items))
	for _, it := range items {
		outstanding[it.InvoiceNumber] = it.Amount
	}

	plan := &StatusPlan{}
	for i, row := range t.Rows() {
		number := ledger.NormalizeInvoiceNumber(ledger.Cell(row, numberCol))
		if number == "" {
			continue
		}
		amount, ok := outstanding[number]
		if !ok {
			continue
		}

		status, paymentDate := payment.StatusUnpaid, ""
		if amount.IsZero() {
			status, paymentDate = payment.StatusPaid, ledger.Cell(row, docDateCol)
			plan.PaidCount++
		} else {
			plan.UnpaidCount++
		}

		if strings.EqualFold(ledger.Cell(row, statusCol), status) {
			continue
		}
		sheetRow := ledger.SheetRow(i)
		plan.Updates = append(plan.Updates, ledger.CellUpdate{Row: sheetRow, Column: statusIdx, Value: status})
		if hasPaymentDate {
			plan.Updates = append(plan.Updates, ledger.CellUpdate{Row: sheetRow, Column: dateIdx, Value: paymentDate})
		}
		plan.RowsUpdated++
	}
	return plan, nil
}
