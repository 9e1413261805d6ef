package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceqa/internal/ledger"
)

var header = []string{"Debtor Code", "Debtor Name", "Doc Date", "Description", "Qty", "Unit Price", "Doc No", "Sub Total", "Payment Status", "Payment Date"}

var now = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func row(code, name, date, desc, qty, price, number, amount, status string) []string {
	return []string{code, name, date, desc, qty, price, number, amount, status, ""}
}

func table(rows ...[]string) ledger.Table {
	t := ledger.Table{header}
	return append(t, rows...)
}

func sampleTable() ledger.Table {
	return table(
		row("300-A001", "ABC TRADING", "15/01/2026", "Frozen Prawn 1kg", "2", "50", "IV-2601-001", "100", "Unpaid"),
		row("300-A001", "ABC TRADING", "15/01/2026", "Sea Cucumber", "1", "200", "IV-2601-001", "200", "Unpaid"),
		row("300-X002", "XYZ SEAFOOD", "20/01/2026", "Frozen Prawn 2kg", "3", "90", "IV-2601-002", "270", "Paid"),
		row("300-X002", "XYZ SEAFOOD", "01/02/2026", "Squid", "4", "25", "IV-2602-003", "100", "Unpaid"),
		row("300-C003", "CHEF TAM CUISINE", "05/11/2025", "Sharkfin", "1", "1,500.00", "IV-2511-004", "1,500.00", "Paid"),
		row("300-C003", "CHEF TAM CUISINE", "10/03/2026", "Frozen Prawn 1kg", "1", "50", "IV-2603-005", "50", "Unpaid"),
	)
}

func TestNoDataForEmptyTables(t *testing.T) {
	empty := ledger.Table{}
	headerOnly := table()

	for name, tbl := range map[string]ledger.Table{"empty": empty, "header only": headerOnly} {
		t.Run(name, func(t *testing.T) {
			_, err := AllUnpaid(tbl)
			assert.ErrorIs(t, err, ErrNoData)
			_, err = DateRange(tbl, "01/01/2026", "31/01/2026")
			assert.ErrorIs(t, err, ErrNoData)
			_, err = ProductSearch(tbl, "prawn")
			assert.ErrorIs(t, err, ErrNoData)
			_, err = TopCustomers(tbl, 5, SortByRevenue)
			assert.ErrorIs(t, err, ErrNoData)
			_, err = InactiveCustomers(tbl, 60, now)
			assert.ErrorIs(t, err, ErrNoData)
			_, err = Overdue(tbl, 30, now)
			assert.ErrorIs(t, err, ErrNoData)
			_, err = PaymentStatus(tbl, "ABC")
			assert.ErrorIs(t, err, ErrNoData)
			_, err = InvoiceDetails(tbl, "IV-2601-001")
			assert.ErrorIs(t, err, ErrNoData)
			_, err = CustomerHistory(tbl, "ABC", HistoryFilter{})
			assert.ErrorIs(t, err, ErrNoData)
			_, err = Stats(tbl)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestAllUnpaid_SingleInvoiceAcrossRows(t *testing.T) {
	tbl := table(
		row("", "ABC", "01/01/2026", "a", "1", "", "IV-2501-001", "100", "Unpaid"),
		row("", "ABC", "01/01/2026", "b", "1", "", "IV-2501-001", "200", "Unpaid"),
		row("", "ABC", "01/01/2026", "c", "1", "", "IV-2501-001", "50", "Unpaid"),
	)

	result, err := AllUnpaid(tbl)
	require.NoError(t, err)

	assert.True(t, result.HasUnpaid)
	require.Len(t, result.Customers, 1)
	assert.Equal(t, "ABC", result.Customers[0].Name)
	assert.Equal(t, "350", result.Customers[0].Total.String())
	assert.Equal(t, 1, result.Customers[0].Count())
	assert.Equal(t, 1, result.TotalInvoices)
}

func TestAllUnpaid_SortedByOutstandingWithStableTies(t *testing.T) {
	tbl := table(
		row("", "Small", "01/01/2026", "a", "1", "", "IV-1", "10", "Unpaid"),
		row("", "Tie One", "01/01/2026", "a", "1", "", "IV-2", "50", "Unpaid"),
		row("", "Big", "01/01/2026", "a", "1", "", "IV-3", "900", "Unpaid"),
		row("", "Tie Two", "01/01/2026", "a", "1", "", "IV-4", "50", "unpaid"),
		row("", "Paid Co", "01/01/2026", "a", "1", "", "IV-5", "5000", "Paid"),
	)

	result, err := AllUnpaid(tbl)
	require.NoError(t, err)

	var names []string
	for _, c := range result.Customers {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Big", "Tie One", "Tie Two", "Small"}, names)
	assert.Equal(t, "1010", result.TotalAmount.String())
	assert.Equal(t, 4, result.TotalCustomers)
}

func TestAllUnpaid_EmptyIsNotAbsent(t *testing.T) {
	allPaid := table(row("", "ABC", "01/01/2026", "a", "1", "", "IV-1", "10", "Paid"))

	result, err := AllUnpaid(allPaid)
	require.NoError(t, err)
	assert.False(t, result.HasUnpaid)
	assert.Equal(t, 0, result.TotalInvoices)
	assert.True(t, result.TotalAmount.IsZero())

	noStatus := ledger.Table{
		{"Doc No", "Debtor Name", "Sub Total"},
		{"IV-1", "ABC", "10"},
	}
	_, err = AllUnpaid(noStatus)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDateRange_Scenario(t *testing.T) {
	tbl := table(
		row("", "ABC", "15/01/2026", "a", "1", "", "IV-2601-001", "500", "Paid"),
		row("", "ABC", "01/02/2026", "a", "1", "", "IV-2602-001", "700", "Unpaid"),
	)

	result, err := DateRange(tbl, "01/01/2026", "31/01/2026")
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalInvoices)
	assert.Equal(t, "500", result.TotalAmount.String())
	assert.Equal(t, 1, result.PaidCount)
	assert.Equal(t, 0, result.UnpaidCount)
}

func TestDateRange_InclusiveBounds(t *testing.T) {
	tbl := table(
		row("", "A", "31/12/2025", "a", "1", "", "IV-OUT-1", "1", "Paid"),
		row("", "A", "01/01/2026", "a", "1", "", "IV-START", "1", "Paid"),
		row("", "A", "31/01/2026", "a", "1", "", "IV-END", "1", "Paid"),
		row("", "A", "01/02/2026", "a", "1", "", "IV-OUT-2", "1", "Paid"),
		row("", "A", "someday", "a", "1", "", "IV-UNDATED", "1", "Paid"),
	)

	result, err := DateRange(tbl, "01/01/2026", "31/01/2026")
	require.NoError(t, err)

	require.Len(t, result.Invoices, 2)
	assert.Equal(t, "IV-END", result.Invoices[0].Number)
	assert.Equal(t, "IV-START", result.Invoices[1].Number)
}

func TestDateRange_DeduplicatesAndSortsNewestFirst(t *testing.T) {
	result, err := DateRange(sampleTable(), "01/01/2026", "31/03/2026")
	require.NoError(t, err)

	var numbers []string
	for _, inv := range result.Invoices {
		numbers = append(numbers, inv.Number)
	}
	assert.Equal(t, []string{"IV-2603-005", "IV-2602-003", "IV-2601-002", "IV-2601-001"}, numbers)
	assert.Equal(t, "720", result.TotalAmount.String())
	assert.Equal(t, 1, result.PaidCount)
	assert.Equal(t, 3, result.UnpaidCount)
}

func TestDateRange_UnparseableBounds(t *testing.T) {
	_, err := DateRange(sampleTable(), "soon", "31/01/2026")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRecentAndCurrentMonth(t *testing.T) {
	recent, err := Recent(sampleTable(), 7, now)
	require.NoError(t, err)
	assert.Equal(t, "08/03/2026", recent.StartDate)
	assert.Equal(t, "15/03/2026", recent.EndDate)
	require.Len(t, recent.Invoices, 1)
	assert.Equal(t, "IV-2603-005", recent.Invoices[0].Number)

	month, err := CurrentMonth(sampleTable(), now)
	require.NoError(t, err)
	assert.Equal(t, "01/03/2026", month.StartDate)
	assert.Equal(t, "31/03/2026", month.EndDate)
	assert.Equal(t, 1, month.TotalInvoices)
}

func TestProductSearch(t *testing.T) {
	result, err := ProductSearch(sampleTable(), "frozen PRAWN")
	require.NoError(t, err)

	require.Len(t, result.Matches, 3)
	assert.Equal(t, "IV-2603-005", result.Matches[0].InvoiceNumber)
	assert.Equal(t, "IV-2601-002", result.Matches[1].InvoiceNumber)
	assert.Equal(t, "IV-2601-001", result.Matches[2].InvoiceNumber)
	assert.Equal(t, 3, result.TotalInvoices)
	assert.Equal(t, "6", result.TotalQuantity.String())
	assert.Equal(t, "420", result.TotalAmount.String())

	require.Len(t, result.Breakdown, 2)
	assert.Equal(t, "Frozen Prawn 1kg", result.Breakdown[0].Product)
	assert.Equal(t, "3", result.Breakdown[0].Quantity.String())
	assert.Equal(t, "150", result.Breakdown[0].Amount.String())
}

func TestProductSearch_OneInvoiceManyMatchingLines(t *testing.T) {
	tbl := table(
		row("", "ABC", "01/01/2026", "Prawn S", "1", "", "IV-1", "10", "Paid"),
		row("", "ABC", "01/01/2026", "Prawn L", "1", "", "IV-1", "20", "Paid"),
	)

	result, err := ProductSearch(tbl, "prawn")
	require.NoError(t, err)
	assert.Len(t, result.Matches, 2)
	assert.Equal(t, 1, result.TotalInvoices)
}

func TestProductSearch_NoMatchAndBlankTerm(t *testing.T) {
	result, err := ProductSearch(sampleTable(), "abalone")
	require.NoError(t, err)
	assert.False(t, result.HasMatches())
	assert.Equal(t, "abalone", result.SearchTerm)

	_, err = ProductSearch(sampleTable(), "  ")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTopCustomers(t *testing.T) {
	result, err := TopCustomers(sampleTable(), 2, SortByRevenue)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalCustomers)
	require.Len(t, result.Customers, 2)
	assert.Equal(t, "CHEF TAM CUISINE", result.Customers[0].Name)
	assert.Equal(t, "1550", result.Customers[0].TotalRevenue.String())
	assert.Equal(t, "50", result.Customers[0].UnpaidAmount.String())
	assert.Equal(t, "1500", result.Customers[0].PaidAmount.String())
	assert.Equal(t, "10/03/2026", result.Customers[0].LastOrderDate)
	assert.Equal(t, "XYZ SEAFOOD", result.Customers[1].Name)
	assert.Equal(t, 2, result.Customers[1].InvoiceCount)
}

func TestTopCustomers_ByInvoicesAndDefaultLimit(t *testing.T) {
	result, err := TopCustomers(sampleTable(), 0, SortByInvoices)
	require.NoError(t, err)

	require.Len(t, result.Customers, 3)
	// ABC has two rows but one invoice; XYZ and CHEF TAM have two each.
	assert.Equal(t, "XYZ SEAFOOD", result.Customers[0].Name)
	assert.Equal(t, "CHEF TAM CUISINE", result.Customers[1].Name)
	assert.Equal(t, "ABC TRADING", result.Customers[2].Name)
	assert.Equal(t, 1, result.Customers[2].InvoiceCount)
}

func TestInactiveCustomers(t *testing.T) {
	result, err := InactiveCustomers(sampleTable(), 30, now)
	require.NoError(t, err)

	require.Equal(t, 2, result.InactiveCount())
	assert.Equal(t, "ABC TRADING", result.Customers[0].Name)
	assert.Equal(t, 59, result.Customers[0].DaysSinceLastOrder)
	assert.Equal(t, "300", result.Customers[0].LastAmount.String())
	assert.Equal(t, "XYZ SEAFOOD", result.Customers[1].Name)
	assert.Equal(t, "01/02/2026", result.Customers[1].LastOrderDate)
	assert.Equal(t, 42, result.Customers[1].DaysSinceLastOrder)
}

func TestInactiveCustomers_DefaultWindow(t *testing.T) {
	result, err := InactiveCustomers(sampleTable(), 0, now)
	require.NoError(t, err)

	assert.Equal(t, DefaultInactiveDays, result.CutoffDays)
	assert.Equal(t, 0, result.InactiveCount())
}

func TestOverdue_Scenario(t *testing.T) {
	tbl := table(
		row("", "Recent", ledger.FormatDate(now.AddDate(0, 0, -10)), "a", "1", "", "IV-10", "10", "Unpaid"),
		row("", "Old", ledger.FormatDate(now.AddDate(0, 0, -40)), "a", "1", "", "IV-40", "40", "Unpaid"),
		row("", "Old Paid", ledger.FormatDate(now.AddDate(0, 0, -90)), "a", "1", "", "IV-90", "90", "Paid"),
	)

	result, err := Overdue(tbl, 30, now)
	require.NoError(t, err)
	require.Equal(t, 1, result.OverdueCount())
	assert.Equal(t, "IV-40", result.Invoices[0].Number)
	assert.Equal(t, 40, result.Invoices[0].DaysOverdue)
	assert.Equal(t, SeverityHigh, result.Invoices[0].Severity())

	result, err = Overdue(tbl, 5, now)
	require.NoError(t, err)
	require.Equal(t, 2, result.OverdueCount())
	assert.Equal(t, "IV-40", result.Invoices[0].Number)
	assert.Equal(t, "IV-10", result.Invoices[1].Number)
	assert.Equal(t, 10, result.Invoices[1].DaysOverdue)
	assert.Equal(t, "50", result.TotalAmount.String())
}

func TestOverdue_CutoffIsNowMinusDays(t *testing.T) {
	tbl := table(
		row("", "Edge", ledger.FormatDate(now.AddDate(0, 0, -30)), "a", "1", "", "IV-30", "30", "Unpaid"),
		row("", "Past", ledger.FormatDate(now.AddDate(0, 0, -31)), "a", "1", "", "IV-31", "31", "Unpaid"),
		row("", "Recent", ledger.FormatDate(now.AddDate(0, 0, -29)), "a", "1", "", "IV-29", "29", "Unpaid"),
		row("", "Undated", "unknown", "a", "1", "", "IV-X", "1", "Unpaid"),
	)

	// 13/02/2026 00:00 is before the cutoff of 13/02/2026 10:00
	result, err := Overdue(tbl, 30, now)
	require.NoError(t, err)
	require.Equal(t, 2, result.OverdueCount())
	assert.Equal(t, "IV-31", result.Invoices[0].Number)
	assert.Equal(t, "IV-30", result.Invoices[1].Number)
	assert.Equal(t, 30, result.Invoices[1].DaysOverdue)

	midnight := ledger.StartOfDay(now)
	result, err = Overdue(tbl, 30, midnight)
	require.NoError(t, err)
	require.Equal(t, 1, result.OverdueCount())
	assert.Equal(t, "IV-31", result.Invoices[0].Number)
}

func TestInactiveCustomers_CutoffIsNowMinusDays(t *testing.T) {
	tbl := table(
		row("", "EDGE FOODS", ledger.FormatDate(now.AddDate(0, 0, -30)), "a", "1", "", "IV-1", "10", "Paid"),
		row("", "FRESH MART", ledger.FormatDate(now.AddDate(0, 0, -29)), "a", "1", "", "IV-2", "10", "Paid"),
	)

	result, err := InactiveCustomers(tbl, 30, now)
	require.NoError(t, err)
	require.Equal(t, 1, result.InactiveCount())
	assert.Equal(t, "EDGE FOODS", result.Customers[0].Name)
	assert.Equal(t, 30, result.Customers[0].DaysSinceLastOrder)
}

func TestOverdue_Severity(t *testing.T) {
	assert.Equal(t, SeverityCritical, OverdueInvoice{DaysOverdue: 61}.Severity())
	assert.Equal(t, SeverityHigh, OverdueInvoice{DaysOverdue: 60}.Severity())
	assert.Equal(t, SeverityHigh, OverdueInvoice{DaysOverdue: 31}.Severity())
	assert.Equal(t, SeverityModerate, OverdueInvoice{DaysOverdue: 30}.Severity())
}

func TestPaymentStatus(t *testing.T) {
	result, err := PaymentStatus(sampleTable(), "abc")
	require.NoError(t, err)

	assert.Equal(t, "ABC TRADING", result.DisplayName())
	assert.True(t, result.HasUnpaid)
	require.Len(t, result.UnpaidInvoices, 1)
	assert.Equal(t, "300", result.UnpaidInvoices[0].Amount.String())
	assert.Equal(t, []string{"Frozen Prawn 1kg", "Sea Cucumber"}, result.UnpaidInvoices[0].Items)
	assert.Equal(t, "300", result.TotalUnpaid.String())
	assert.Equal(t, 0, result.PaidCount)
	assert.Equal(t, 1, result.TotalInvoices)

	xyz, err := PaymentStatus(sampleTable(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, 1, xyz.PaidCount)
	assert.Equal(t, 2, xyz.TotalInvoices)

	_, err = PaymentStatus(sampleTable(), "Nobody")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestInvoiceDetails(t *testing.T) {
	inv, err := InvoiceDetails(sampleTable(), "2601001")
	require.NoError(t, err)

	assert.Equal(t, "IV-2601-001", inv.Number)
	assert.Equal(t, "ABC TRADING", inv.Customer)
	assert.Equal(t, "300-A001", inv.CustomerCode)
	assert.Equal(t, 2, inv.ItemCount())
	assert.Equal(t, "300", inv.Total.String())
	assert.Equal(t, "50", inv.LineItems[0].UnitPrice.String())

	_, err = InvoiceDetails(sampleTable(), "IV-9999-999")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestInvoiceDetails_NormalizesBeforeLookup(t *testing.T) {
	tbl := table(row("", "ABC", "01/02/2025", "a", "1", "", "IV-2502-015", "10", "Paid"))

	inv, err := InvoiceDetails(tbl, "IV2502015")
	require.NoError(t, err)
	assert.Equal(t, "IV-2502-015", inv.Number)
}

func TestCustomerHistory(t *testing.T) {
	result, err := CustomerHistory(sampleTable(), "xyz", HistoryFilter{})
	require.NoError(t, err)

	require.Len(t, result.Invoices, 2)
	assert.Equal(t, "IV-2602-003", result.Invoices[0].Number)
	assert.Equal(t, "IV-2601-002", result.Invoices[1].Number)
	assert.Equal(t, 1, result.PaidCount)
	assert.Equal(t, 1, result.UnpaidCount)
	assert.Equal(t, "370", result.TotalAmount.String())

	unpaid, err := CustomerHistory(sampleTable(), "xyz", HistoryFilter{UnpaidOnly: true})
	require.NoError(t, err)
	require.Len(t, unpaid.Invoices, 1)
	assert.Equal(t, "IV-2602-003", unpaid.Invoices[0].Number)

	limited, err := CustomerHistory(sampleTable(), "xyz", HistoryFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited.Invoices, 1)
	assert.Equal(t, 2, limited.TotalInvoices)
}

func TestStats(t *testing.T) {
	result, err := Stats(sampleTable())
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalInvoices)
	assert.Equal(t, 2, result.PaidCount)
	assert.Equal(t, 3, result.UnpaidCount)
	assert.Equal(t, "1770", result.PaidAmount.String())
	assert.Equal(t, "450", result.UnpaidAmount.String())
	assert.Len(t, result.Unpaid, 3)
}
