package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var listingHeader = []string{
	"Debtor Code", "Debtor Name", "Doc Date", "Item Code", "Description",
	"Qty", "Unit Price", "Doc No", "Sub Total", "Total", "Agent", "Remark",
	"Payment Status", "Payment Date",
}

func TestResolve_ListingHeader(t *testing.T) {
	cols := Resolve(listingHeader)

	tests := []struct {
		field Field
		want  int
	}{
		{FieldCustomerCode, 0},
		{FieldCustomerName, 1},
		{FieldDocumentDate, 2},
		{FieldProductDescription, 4},
		{FieldQuantity, 5},
		{FieldUnitPrice, 6},
		{FieldInvoiceNumber, 7},
		{FieldAmount, 8},
		{FieldPaymentStatus, 12},
		{FieldPaymentDate, 13},
	}

	for _, tt := range tests {
		t.Run(string(tt.field), func(t *testing.T) {
			idx, ok := cols.Get(tt.field).Index()
			assert.True(t, ok)
			assert.Equal(t, tt.want, idx)
		})
	}
}

func TestResolve_DateExcludesPaymentDate(t *testing.T) {
	cols := Resolve([]string{"Payment Date", "Doc No", "Date"})

	idx, ok := cols.Get(FieldDocumentDate).Index()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestResolve_AmountIgnoresGrandTotal(t *testing.T) {
	cols := Resolve([]string{"Total", "Doc No", "SubTotal"})

	idx, ok := cols.Get(FieldAmount).Index()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestResolve_FirstMatchWins(t *testing.T) {
	cols := Resolve([]string{"Customer", "Debtor Name"})

	idx, _ := cols.Get(FieldCustomerName).Index()
	assert.Equal(t, 0, idx)
}

func TestResolve_MissingAndEmptyHeaders(t *testing.T) {
	cols := Resolve([]string{"", "  ", "Doc No"})

	assert.False(t, cols.Get(FieldPaymentStatus).IsFound())
	assert.Equal(t, NotFound, cols.Get(FieldAmount))
	assert.True(t, cols.Has(FieldInvoiceNumber))
	assert.False(t, cols.Has(FieldInvoiceNumber, FieldPaymentStatus))
}

func TestResolve_StatusNeedsPayment(t *testing.T) {
	cols := Resolve([]string{"Doc Status", "Doc No", "Payment Status"})

	idx, ok := cols.Get(FieldPaymentStatus).Index()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	assert.False(t, Resolve([]string{"Doc No", "Status"}).Get(FieldPaymentStatus).IsFound())
}

func TestResolve_NormalizesWidthAndCase(t *testing.T) {
	cols := Resolve([]string{"  ＤＯＣ ＮＯ  "})

	idx, ok := cols.Get(FieldInvoiceNumber).Index()
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestResolve_Deterministic(t *testing.T) {
	first := Resolve(listingHeader)
	second := Resolve(listingHeader)
	assert.Equal(t, first, second)

	// Agent (10) and Remark (11) match nothing; swapping them changes no index.
	swapped := append([]string(nil), listingHeader...)
	swapped[10], swapped[11] = swapped[11], swapped[10]
	assert.Equal(t, first, Resolve(swapped))
}

func TestCell(t *testing.T) {
	row := []string{" a ", "b"}

	assert.Equal(t, "a", Cell(row, Found(0)))
	assert.Equal(t, "", Cell(row, Found(5)))
	assert.Equal(t, "", Cell(row, NotFound))
}

func TestFromValues(t *testing.T) {
	table := FromValues([][]interface{}{
		{"Doc No", "Sub Total"},
		{"IV-2501-001", 12.5, nil},
	})

	assert.Equal(t, []string{"Doc No", "Sub Total"}, table.Header())
	assert.Equal(t, [][]string{{"IV-2501-001", "12.5", ""}}, table.Rows())
	assert.True(t, table.HasData())
	assert.False(t, Table{{"Doc No"}}.HasData())
}
