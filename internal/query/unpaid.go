package query

import (
	"sort"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// UnpaidCustomer groups one customer's unpaid invoices
type UnpaidCustomer struct {
	Name     string
	Invoices []InvoiceSummary
	Total    decimal.Decimal
}

// Count is the number of unpaid invoices
func (c UnpaidCustomer) Count() int {
	return len(c.Invoices)
}

// AllUnpaidResult summarizes every unpaid invoice in the ledger
type AllUnpaidResult struct {
	HasUnpaid      bool
	TotalCustomers int
	TotalInvoices  int
	TotalAmount    decimal.Decimal
	Customers      []UnpaidCustomer // largest outstanding first
}

// AllUnpaid groups unpaid invoices by customer. A readable table with nothing
// unpaid returns HasUnpaid=false; ErrNoData is reserved for tables missing the
// invoice number or status column.
func AllUnpaid(t ledger.Table) (*AllUnpaidResult, error) {
	rows, cols, err := resolve(t, ledger.FieldInvoiceNumber, ledger.FieldPaymentStatus)
	if err != nil {
		return nil, err
	}

	invoices := ledger.Aggregate(rows, cols, statusIs(cols, ledger.StatusUnpaid))

	var customers []*UnpaidCustomer
	byName := make(map[string]*UnpaidCustomer)
	for _, inv := range invoices.All() {
		name := inv.Customer
		if name == "" {
			name = unknownCustomer
		}
		c, ok := byName[name]
		if !ok {
			c = &UnpaidCustomer{Name: name, Total: decimal.Zero}
			byName[name] = c
			customers = append(customers, c)
		}
		c.Invoices = append(c.Invoices, summarize(inv))
		c.Total = c.Total.Add(inv.Total)
	}

	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].Total.GreaterThan(customers[j].Total)
	})

	result := &AllUnpaidResult{
		HasUnpaid:      invoices.Len() > 0,
		TotalCustomers: len(customers),
		TotalInvoices:  invoices.Len(),
		TotalAmount:    invoices.Total(),
	}
	for _, c := range customers {
		result.Customers = append(result.Customers, *c)
	}
	return result, nil
}
