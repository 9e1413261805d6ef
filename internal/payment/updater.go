package payment

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/logger"
)

// Store reads the ledger and writes cells back to it
type Store interface {
	ReadTable(ctx context.Context) (ledger.Table, error)
	WriteCells(ctx context.Context, updates []ledger.CellUpdate) error
}

// Result is the outcome for one invoice of a command
type Result struct {
	InvoiceNumber string
	RowsUpdated   int
	Err           error
}

// OK reports whether the invoice was updated
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary is the outcome of a whole command
type Summary struct {
	Status      string
	PaymentDate string
	Results     []Result
}

// Succeeded counts updated invoices
func (s *Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed counts invoices that could not be updated
func (s *Summary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// RowsUpdated counts line items written across all invoices
func (s *Summary) RowsUpdated() int {
	n := 0
	for _, r := range s.Results {
		n += r.RowsUpdated
	}
	return n
}

// Updater applies commands to a Store
type Updater struct {
	store Store
	log   zerolog.Logger
}

// NewUpdater creates an Updater writing to store
func NewUpdater(store Store) *Updater {
	return &Updater{
		store: store,
		log:   logger.WithComponent("payment"),
	}
}

// Apply writes the command's status, and payment date when the sheet has a
// payment date column, to every row of each named invoice. Invoices missing
// from the sheet are reported in the Summary; the rest are written in one batch.
func (u *Updater) Apply(ctx context.Context, cmd *Command) (*Summary, error) {
	const op = "Apply"

	if cmd == nil || len(cmd.InvoiceNumbers) == 0 {
		return nil, NewUpdateError(op, "", ErrEmptyCommand)
	}

	table, err := u.store.ReadTable(ctx)
	if err != nil {
		return nil, NewUpdateError(op, "", fmt.Errorf("read ledger: %w", err))
	}

	cols := ledger.Resolve(table.Header())
	if !cols.Has(ledger.FieldInvoiceNumber, ledger.FieldPaymentStatus) {
		return nil, NewUpdateError(op, "", ErrNoStatusColumn)
	}
	numberCol := cols.Get(ledger.FieldInvoiceNumber)
	statusIdx, _ := cols.Get(ledger.FieldPaymentStatus).Index()
	dateIdx, hasDate := cols.Get(ledger.FieldPaymentDate).Index()

	summary := &Summary{
		Status:      cmd.Status,
		PaymentDate: cmd.PaymentDate,
	}
	var updates []ledger.CellUpdate

	rows := table.Rows()
	for _, number := range cmd.InvoiceNumbers {
		result := Result{InvoiceNumber: number}
		for i, row := range rows {
			if !ledger.SameInvoice(ledger.Cell(row, numberCol), number) {
				continue
			}
			sheetRow := ledger.SheetRow(i)
			updates = append(updates, ledger.CellUpdate{Row: sheetRow, Column: statusIdx, Value: cmd.Status})
			if hasDate {
				updates = append(updates, ledger.CellUpdate{Row: sheetRow, Column: dateIdx, Value: cmd.PaymentDate})
			}
			result.RowsUpdated++
		}
		if result.RowsUpdated == 0 {
			result.Err = NewUpdateError(op, number, ErrInvoiceNotFound)
			u.log.Warn().Str("invoice", number).Msg("Invoice not found in sheet")
		}
		summary.Results = append(summary.Results, result)
	}

	if len(updates) == 0 {
		return summary, nil
	}

	if err := u.store.WriteCells(ctx, updates); err != nil {
		return nil, NewUpdateError(op, "", fmt.Errorf("write ledger: %w", err))
	}

	u.log.Info().
		Str("status", cmd.Status).
		Str("payment_date", cmd.PaymentDate).
		Int("invoices", summary.Succeeded()).
		Int("rows", summary.RowsUpdated()).
		Msg("Payment status updated")

	return summary, nil
}
