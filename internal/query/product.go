package query

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// ProductMatch is one line item whose description matched
type ProductMatch struct {
	InvoiceNumber string
	Customer      string
	Product       string
	Quantity      decimal.Decimal
	Amount        decimal.Decimal
	Date          string
}

// ProductTotal rolls up quantity and amount for one description
type ProductTotal struct {
	Product  string
	Quantity decimal.Decimal
	Amount   decimal.Decimal
}

// ProductSearchResult holds every matching line item and per-product totals
type ProductSearchResult struct {
	SearchTerm    string
	TotalInvoices int // distinct invoice numbers among the matches
	TotalQuantity decimal.Decimal
	TotalAmount   decimal.Decimal
	Breakdown     []ProductTotal // first-seen order
	Matches       []ProductMatch // newest first
}

// HasMatches reports whether any line item matched
func (r *ProductSearchResult) HasMatches() bool {
	return len(r.Matches) > 0
}

// ProductSearch finds line items whose description contains term,
// case-insensitively. Matches are per line, so an invoice selling two matching
// products appears twice. No match is an empty result, not ErrNoData.
func ProductSearch(t ledger.Table, term string) (*ProductSearchResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrNoData
	}
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber, ledger.FieldProductDescription)
	if err != nil {
		return nil, err
	}

	result := &ProductSearchResult{
		SearchTerm:    term,
		TotalQuantity: decimal.Zero,
		TotalAmount:   decimal.Zero,
	}
	matches := func(row []string) bool {
		return containsFold(ledger.Cell(row, cols.Get(ledger.FieldProductDescription)), term)
	}

	totals := make(map[string]*ProductTotal)
	var order []string
	for _, row := range rows {
		number := ledger.Cell(row, cols.Get(ledger.FieldInvoiceNumber))
		if number == "" || !matches(row) {
			continue
		}

		m := ProductMatch{
			InvoiceNumber: number,
			Customer:      ledger.Cell(row, cols.Get(ledger.FieldCustomerName)),
			Product:       ledger.Cell(row, cols.Get(ledger.FieldProductDescription)),
			Quantity:      ledger.ParseQuantity(ledger.Cell(row, cols.Get(ledger.FieldQuantity))),
			Amount:        ledger.ParseAmount(ledger.Cell(row, cols.Get(ledger.FieldAmount))),
			Date:          ledger.Cell(row, cols.Get(ledger.FieldDocumentDate)),
		}
		result.Matches = append(result.Matches, m)
		result.TotalQuantity = result.TotalQuantity.Add(m.Quantity)
		result.TotalAmount = result.TotalAmount.Add(m.Amount)

		pt, ok := totals[m.Product]
		if !ok {
			pt = &ProductTotal{Product: m.Product, Quantity: decimal.Zero, Amount: decimal.Zero}
			totals[m.Product] = pt
			order = append(order, m.Product)
		}
		pt.Quantity = pt.Quantity.Add(m.Quantity)
		pt.Amount = pt.Amount.Add(m.Amount)
	}

	for _, name := range order {
		result.Breakdown = append(result.Breakdown, *totals[name])
	}
	result.TotalInvoices = ledger.CountInvoices(rows, cols, matches)

	sortByDateDesc(result.Matches, func(m ProductMatch) (time.Time, bool) {
		return ledger.ParseDate(m.Date)
	})
	return result, nil
}
