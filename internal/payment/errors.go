package payment

import (
	"errors"
	"fmt"
)

var (
	// ErrInvoiceNotFound is returned when no row carries the invoice number.
	ErrInvoiceNotFound = errors.New("invoice not found in sheet")

	// ErrNoStatusColumn is returned when the sheet has no invoice number or
	// payment status column to write to.
	ErrNoStatusColumn = errors.New("sheet has no payment status column")

	// ErrEmptyCommand is returned when a command names no invoice.
	ErrEmptyCommand = errors.New("command names no invoice")
)

// UpdateError wraps a failed status update with the invoice it concerned.
type UpdateError struct {
	// Op is the operation that failed (e.g., "Apply", "WriteCells").
	Op string

	// InvoiceNumber is the invoice being updated, empty for sheet-wide failures.
	InvoiceNumber string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *UpdateError) Error() string {
	if e.InvoiceNumber != "" {
		return fmt.Sprintf("payment: %s failed for %s: %v", e.Op, e.InvoiceNumber, e.Err)
	}
	return fmt.Sprintf("payment: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *UpdateError) Unwrap() error {
	return e.Err
}

// NewUpdateError creates an UpdateError.
func NewUpdateError(op, invoiceNumber string, err error) *UpdateError {
	return &UpdateError{
		Op:            op,
		InvoiceNumber: invoiceNumber,
		Err:           err,
	}
}
