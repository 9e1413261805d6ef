package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceqa/pkg/models"
)

func TestExtractCustomerKeywords(t *testing.T) {
	keywords := ExtractCustomerKeywords("How much does ABC TRADING owe?")
	assert.Contains(t, keywords, "TRADING")
	assert.NotContains(t, keywords, "much")
	assert.NotContains(t, keywords, "does")

	keywords = ExtractCustomerKeywords("invoices for 300-C003 please")
	assert.Contains(t, keywords, "300-C003")
	assert.NotContains(t, keywords, "invoices")

	assert.Empty(t, ExtractCustomerKeywords("欠款多少"))
}

func TestExtractCustomerKeywords_Dedupes(t *testing.T) {
	keywords := ExtractCustomerKeywords("seafood SEAFOOD Seafood")
	count := 0
	for _, k := range keywords {
		if k == "seafood" || k == "SEAFOOD" || k == "Seafood" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestFilterByCustomer(t *testing.T) {
	table := sampleTable()

	filtered := FilterByCustomer(table, []string{"seafood"})
	require.Len(t, filtered.Rows(), 2)
	assert.Equal(t, header, filtered.Header())

	filtered = FilterByCustomer(table, []string{"300-a001"})
	assert.Len(t, filtered.Rows(), 2)

	assert.Len(t, FilterByCustomer(table, []string{"nobody"}).Rows(), 5)
	assert.Len(t, FilterByCustomer(table, nil).Rows(), 5)
}

func TestSummarizePayments(t *testing.T) {
	s := SummarizePayments(sampleTable())
	assert.Equal(t, 5, s.TotalRows)
	assert.Equal(t, 2, s.PaidInvoices)
	require.Len(t, s.UnpaidInvoices, 2)
	assert.Equal(t, "400.00", s.TotalUnpaid.StringFixed(2))
}

func TestSmartFilter(t *testing.T) {
	res := SmartFilter(sampleTable(), "what about chef tam", &models.CustomerContext{CustomerName: "CHEF TAM CUISINE"})
	assert.True(t, res.Filtered())
	assert.Equal(t, 5, res.OriginalRows)
	assert.Equal(t, 1, res.FilteredRows)
	require.NotNil(t, res.Summary)
	assert.Equal(t, 1, res.Summary.PaidInvoices)

	res = SmartFilter(sampleTable(), "总销售额", nil)
	assert.False(t, res.Filtered())
	assert.Nil(t, res.Summary)
}

func TestIsPaymentQuestion(t *testing.T) {
	assert.True(t, IsPaymentQuestion("Who still owes us?"))
	assert.True(t, IsPaymentQuestion("谁还欠款"))
	assert.True(t, IsPaymentQuestion("list OUTSTANDING invoices"))
	assert.False(t, IsPaymentQuestion("top customers this year"))
}

func TestGroupContext(t *testing.T) {
	c := GroupContext("Chef Tam Cuisine - orders", sampleTable())
	require.NotNil(t, c)
	assert.Equal(t, "CHEF TAM CUISINE", c.CustomerName)
	assert.Equal(t, "300-C003", c.CustomerCode)

	assert.Nil(t, GroupContext("Internal sales team", sampleTable()))
	assert.Nil(t, GroupContext("", sampleTable()))
}
