package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is a normalized payment status
type Status int

const (
	StatusOther Status = iota
	StatusPaid
	StatusUnpaid
)

// ParseStatus compares case-insensitively against "paid" and "unpaid"
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "paid":
		return StatusPaid
	case "unpaid":
		return StatusUnpaid
	default:
		return StatusOther
	}
}

// LineItem is one product line of an invoice
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// Invoice is every row sharing one invoice number, folded together
type Invoice struct {
	Number       string
	Customer     string          // first-seen value
	CustomerCode string          // first-seen value
	Date         string          // first-seen value, original text
	Status       string          // first-seen value, original text
	PaymentDate  string          // first-seen value, original text
	Total        decimal.Decimal // sum of every line amount
	LineItems    []LineItem      // in row order
}

// ItemCount is the number of line items
func (inv *Invoice) ItemCount() int {
	return len(inv.LineItems)
}

// PaymentStatus parses the invoice status
func (inv *Invoice) PaymentStatus() Status {
	return ParseStatus(inv.Status)
}

// DateIn parses the invoice date in loc
func (inv *Invoice) DateIn(loc *time.Location) (time.Time, bool) {
	return ParseDateIn(inv.Date, loc)
}

// Descriptions lists the non-empty line descriptions
func (inv *Invoice) Descriptions() []string {
	var out []string
	for _, item := range inv.LineItems {
		if item.Description != "" {
			out = append(out, item.Description)
		}
	}
	return out
}

// RowFilter decides whether a data row takes part in an aggregation
type RowFilter func(row []string) bool

// InvoiceSet holds aggregated invoices in first-seen order
type InvoiceSet struct {
	order    []*Invoice
	byNumber map[string]*Invoice
}

// Len is the number of distinct invoices
func (s *InvoiceSet) Len() int {
	return len(s.order)
}

// All returns the invoices in the order their numbers first appear
func (s *InvoiceSet) All() []*Invoice {
	out := make([]*Invoice, len(s.order))
	copy(out, s.order)
	return out
}

// Get looks an invoice up by number, ignoring case and surrounding spaces
func (s *InvoiceSet) Get(number string) (*Invoice, bool) {
	inv, ok := s.byNumber[invoiceKey(number)]
	return inv, ok
}

// Total sums every invoice total
func (s *InvoiceSet) Total() decimal.Decimal {
	total := decimal.Zero
	for _, inv := range s.order {
		total = total.Add(inv.Total)
	}
	return total
}

// Aggregate folds rows into invoices keyed by invoice number (case-insensitive).
// Rows with a blank number, or rejected by keep (when non-nil), are skipped.
// Line amounts accumulate; single-valued fields keep the value of the first
// row seen.
func Aggregate(rows [][]string, cols ColumnMap, keep RowFilter) *InvoiceSet {
	set := &InvoiceSet{byNumber: make(map[string]*Invoice)}
	numberCol := cols.Get(FieldInvoiceNumber)

	for _, row := range rows {
		number := Cell(row, numberCol)
		if number == "" {
			continue
		}
		if keep != nil && !keep(row) {
			continue
		}

		key := invoiceKey(number)
		inv, ok := set.byNumber[key]
		if !ok {
			inv = &Invoice{
				Number:       number,
				Customer:     Cell(row, cols.Get(FieldCustomerName)),
				CustomerCode: Cell(row, cols.Get(FieldCustomerCode)),
				Date:         Cell(row, cols.Get(FieldDocumentDate)),
				Status:       Cell(row, cols.Get(FieldPaymentStatus)),
				PaymentDate:  Cell(row, cols.Get(FieldPaymentDate)),
				Total:        decimal.Zero,
			}
			set.byNumber[key] = inv
			set.order = append(set.order, inv)
		}

		amount := ParseAmount(Cell(row, cols.Get(FieldAmount)))
		inv.Total = inv.Total.Add(amount)
		inv.LineItems = append(inv.LineItems, LineItem{
			Description: Cell(row, cols.Get(FieldProductDescription)),
			Quantity:    ParseQuantity(Cell(row, cols.Get(FieldQuantity))),
			UnitPrice:   ParseAmount(Cell(row, cols.Get(FieldUnitPrice))),
			Amount:      amount,
		})
	}
	return set
}

// CountInvoices is the number of distinct non-blank invoice numbers among rows accepted by keep
func CountInvoices(rows [][]string, cols ColumnMap, keep RowFilter) int {
	seen := make(map[string]struct{})
	numberCol := cols.Get(FieldInvoiceNumber)
	for _, row := range rows {
		number := Cell(row, numberCol)
		if number == "" || (keep != nil && !keep(row)) {
			continue
		}
		seen[invoiceKey(number)] = struct{}{}
	}
	return len(seen)
}

func invoiceKey(number string) string {
	return strings.ToUpper(strings.TrimSpace(number))
}
