package query

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
)

// SortBy selects the ranking key for TopCustomers
type SortBy string

const (
	SortByRevenue  SortBy = "revenue"
	SortByInvoices SortBy = "invoices"
)

// CustomerRank is one entry of the customer ranking
type CustomerRank struct {
	Name          string
	TotalRevenue  decimal.Decimal
	InvoiceCount  int
	PaidAmount    decimal.Decimal
	UnpaidAmount  decimal.Decimal
	LastOrderDate string
}

// TopCustomersResult is a truncated customer ranking
type TopCustomersResult struct {
	SortBy         SortBy
	Customers      []CustomerRank
	TotalCustomers int
}

// TopCustomers ranks customers by revenue (default) or distinct invoice count
// and keeps the first limit entries. Equal keys keep encounter order.
func TopCustomers(t ledger.Table, limit int, by SortBy) (*TopCustomersResult, error) {
	rows, cols, err := resolve(t, ledger.FieldCustomerName, ledger.FieldAmount)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if by != SortByInvoices {
		by = SortByRevenue
	}

	customers := ledger.Customers(rows, cols, time.UTC, nil)
	sort.SliceStable(customers, func(i, j int) bool {
		if by == SortByInvoices {
			return customers[i].UniqueInvoiceCount() > customers[j].UniqueInvoiceCount()
		}
		return customers[i].TotalRevenue.GreaterThan(customers[j].TotalRevenue)
	})

	result := &TopCustomersResult{SortBy: by, TotalCustomers: len(customers)}
	for i, c := range customers {
		if i == limit {
			break
		}
		result.Customers = append(result.Customers, CustomerRank{
			Name:          c.Name,
			TotalRevenue:  c.TotalRevenue,
			InvoiceCount:  c.UniqueInvoiceCount(),
			PaidAmount:    c.PaidAmount,
			UnpaidAmount:  c.UnpaidAmount,
			LastOrderDate: c.LastOrderDate,
		})
	}
	return result, nil
}

// InactiveCustomer is a customer whose latest order is older than the cutoff
type InactiveCustomer struct {
	Name               string
	LastOrderDate      string
	DaysSinceLastOrder int
	LastAmount         decimal.Decimal
}

// InactiveCustomersResult lists customers that stopped ordering
type InactiveCustomersResult struct {
	CutoffDays int
	Customers  []InactiveCustomer // most stale first
}

// InactiveCount is the number of inactive customers
func (r *InactiveCustomersResult) InactiveCount() int {
	return len(r.Customers)
}

// InactiveCustomers returns customers whose most recent order date is
// strictly before now minus days. Customers with no readable date are left
// out.
func InactiveCustomers(t ledger.Table, days int, now time.Time) (*InactiveCustomersResult, error) {
	rows, cols, err := resolve(t, ledger.FieldCustomerName, ledger.FieldDocumentDate)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultInactiveDays
	}
	cutoff := now.AddDate(0, 0, -days)

	result := &InactiveCustomersResult{CutoffDays: days}
	for _, c := range ledger.Customers(rows, cols, now.Location(), nil) {
		if !c.HasLastOrder() || !c.LastOrder.Before(cutoff) {
			continue
		}
		result.Customers = append(result.Customers, InactiveCustomer{
			Name:               c.Name,
			LastOrderDate:      c.LastOrderDate,
			DaysSinceLastOrder: ledger.DaysSince(c.LastOrder, now),
			LastAmount:         c.LastAmount(),
		})
	}

	sort.SliceStable(result.Customers, func(i, j int) bool {
		return result.Customers[i].DaysSinceLastOrder > result.Customers[j].DaysSinceLastOrder
	})
	return result, nil
}
