package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerAggregate rolls every row of one customer together
type CustomerAggregate struct {
	Name          string
	TotalRevenue  decimal.Decimal
	PaidAmount    decimal.Decimal
	UnpaidAmount  decimal.Decimal
	LastOrder     time.Time // zero when no row date could be parsed
	LastOrderDate string    // original text of the latest row date
	LastInvoice   string    // invoice number of the latest dated row

	invoiceTotals map[string]decimal.Decimal
	invoiceOrder  []string
}

// UniqueInvoiceCount is the number of distinct invoice numbers
func (c *CustomerAggregate) UniqueInvoiceCount() int {
	return len(c.invoiceOrder)
}

// HasLastOrder reports whether any of the customer's dates parsed
func (c *CustomerAggregate) HasLastOrder() bool {
	return !c.LastOrder.IsZero()
}

// LastAmount is the total of the invoice placed on the latest order date
func (c *CustomerAggregate) LastAmount() decimal.Decimal {
	if c.LastInvoice == "" {
		return decimal.Zero
	}
	return c.invoiceTotals[invoiceKey(c.LastInvoice)]
}

// Customers aggregates rows per customer name in encounter order. Rows with a
// blank customer, or rejected by keep, are skipped. Dates parse in loc.
func Customers(rows [][]string, cols ColumnMap, loc *time.Location, keep RowFilter) []*CustomerAggregate {
	var order []*CustomerAggregate
	byName := make(map[string]*CustomerAggregate)

	for _, row := range rows {
		name := Cell(row, cols.Get(FieldCustomerName))
		if name == "" {
			continue
		}
		if keep != nil && !keep(row) {
			continue
		}

		c, ok := byName[name]
		if !ok {
			c = &CustomerAggregate{
				Name:          name,
				TotalRevenue:  decimal.Zero,
				PaidAmount:    decimal.Zero,
				UnpaidAmount:  decimal.Zero,
				invoiceTotals: make(map[string]decimal.Decimal),
			}
			byName[name] = c
			order = append(order, c)
		}

		amount := ParseAmount(Cell(row, cols.Get(FieldAmount)))
		c.TotalRevenue = c.TotalRevenue.Add(amount)
		switch ParseStatus(Cell(row, cols.Get(FieldPaymentStatus))) {
		case StatusPaid:
			c.PaidAmount = c.PaidAmount.Add(amount)
		case StatusUnpaid:
			c.UnpaidAmount = c.UnpaidAmount.Add(amount)
		}

		number := Cell(row, cols.Get(FieldInvoiceNumber))
		if key := invoiceKey(number); key != "" {
			if _, seen := c.invoiceTotals[key]; !seen {
				c.invoiceOrder = append(c.invoiceOrder, key)
				c.invoiceTotals[key] = decimal.Zero
			}
			c.invoiceTotals[key] = c.invoiceTotals[key].Add(amount)
		}

		raw := Cell(row, cols.Get(FieldDocumentDate))
		if date, ok := ParseDateIn(raw, loc); ok && date.After(c.LastOrder) {
			c.LastOrder = date
			c.LastOrderDate = raw
			c.LastInvoice = number
		}
	}
	return order
}
