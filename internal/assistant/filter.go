package assistant

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"invoiceqa/internal/ledger"
	"invoiceqa/pkg/models"
)

var (
	companyNamePattern  = regexp.MustCompile(`(?i)\b([A-Z][A-Za-z\s&]+(?:SDN BHD|BHD|SDN|RESTAURANT|CUISINE|HOTEL|TRADING|ENTERPRISE|PRODUCTS|SEAFOOD|FOOD|MART|STORE|SHOP))\b`)
	capitalizedPattern  = regexp.MustCompile(`\b([A-Z][A-Za-z\s&]{3,})\b`)
	customerCodePattern = regexp.MustCompile(`(?i)^\d{3}-[A-Z]\d{3}$`)
	plainWordPattern    = regexp.MustCompile(`^[A-Za-z]{4,}$`)
)

// keywordStopwords are question words that never name a customer
var keywordStopwords = map[string]bool{
	"does": true, "have": true, "show": true, "what": true, "when": true, "which": true,
	"much": true, "many": true, "money": true, "owes": true, "owing": true, "invoice": true,
	"invoices": true, "paid": true, "unpaid": true, "outstanding": true, "customer": true,
	"customers": true, "from": true, "with": true, "this": true, "that": true, "month": true,
	"last": true, "total": true, "sales": true, "list": true, "please": true, "their": true,
	"there": true, "still": true, "orders": true, "order": true, "about": true, "tell": true,
}

// ExtractCustomerKeywords pulls likely customer names and codes out of a
// question: company-style names, capitalized phrases, debtor codes such as
// 300-C014 and single words of four or more letters that are not common
// question words. Keywords are trimmed and deduplicated case-insensitively.
func ExtractCustomerKeywords(question string) []string {
	var keywords []string
	seen := make(map[string]bool)
	add := func(k string) {
		k = strings.TrimSpace(k)
		key := strings.ToLower(k)
		if k == "" || seen[key] || keywordStopwords[key] {
			return
		}
		seen[key] = true
		keywords = append(keywords, k)
	}

	for _, re := range []*regexp.Regexp{companyNamePattern, capitalizedPattern} {
		for _, m := range re.FindAllString(question, -1) {
			add(m)
		}
	}
	for _, word := range strings.Fields(question) {
		word = strings.Trim(word, ",.?!:;\"'()")
		if customerCodePattern.MatchString(word) || plainWordPattern.MatchString(word) {
			add(word)
		}
	}
	return keywords
}

// FilterByCustomer keeps the rows whose customer name or code contains any
// keyword. The table comes back unchanged when there are no keywords, no
// customer columns, or no row matches.
func FilterByCustomer(t ledger.Table, keywords []string) ledger.Table {
	if !t.HasData() || len(keywords) == 0 {
		return t
	}
	cols := ledger.Resolve(t.Header())
	nameCol := cols.Get(ledger.FieldCustomerName)
	codeCol := cols.Get(ledger.FieldCustomerCode)
	if !nameCol.IsFound() && !codeCol.IsFound() {
		return t
	}

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	var kept [][]string
	for _, row := range t.Rows() {
		name := strings.ToLower(ledger.Cell(row, nameCol))
		code := strings.ToLower(ledger.Cell(row, codeCol))
		for _, k := range lowered {
			if (name != "" && strings.Contains(name, k)) || (code != "" && strings.Contains(code, k)) {
				kept = append(kept, row)
				break
			}
		}
	}
	if len(kept) == 0 {
		return t
	}
	return t.WithRows(kept)
}

// UnpaidLine is one unpaid invoice in a PaymentSummary
type UnpaidLine struct {
	Number string
	Amount decimal.Decimal
}

// PaymentSummary is the paid/unpaid split of a table, by unique invoice
type PaymentSummary struct {
	TotalUnpaid    decimal.Decimal
	UnpaidInvoices []UnpaidLine
	PaidInvoices   int
	TotalRows      int
}

// SummarizePayments folds t into a PaymentSummary. A table without a status
// column only reports its row count.
func SummarizePayments(t ledger.Table) PaymentSummary {
	summary := PaymentSummary{TotalUnpaid: decimal.Zero}
	if !t.HasData() {
		return summary
	}
	rows := t.Rows()
	summary.TotalRows = len(rows)

	cols := ledger.Resolve(t.Header())
	if !cols.Has(ledger.FieldInvoiceNumber, ledger.FieldPaymentStatus) {
		return summary
	}

	for _, inv := range ledger.Aggregate(rows, cols, nil).All() {
		switch inv.PaymentStatus() {
		case ledger.StatusUnpaid:
			summary.UnpaidInvoices = append(summary.UnpaidInvoices, UnpaidLine{Number: inv.Number, Amount: inv.Total})
			summary.TotalUnpaid = summary.TotalUnpaid.Add(inv.Total)
		case ledger.StatusPaid:
			summary.PaidInvoices++
		}
	}
	return summary
}

// FilterResult is a table narrowed to the customers a question is about
type FilterResult struct {
	Table        ledger.Table
	Keywords     []string
	OriginalRows int
	FilteredRows int
	Summary      *PaymentSummary // set when the table was narrowed
}

// Filtered reports whether any rows were dropped
func (r FilterResult) Filtered() bool {
	return r.FilteredRows < r.OriginalRows
}

// SmartFilter narrows t to the customers named in question or attached to
// the chat, and summarizes their payments.
func SmartFilter(t ledger.Table, question string, customer *models.CustomerContext) FilterResult {
	keywords := ExtractCustomerKeywords(question)
	if !customer.IsZero() {
		for _, k := range []string{customer.CustomerName, customer.CustomerCode} {
			if k != "" {
				keywords = append(keywords, k)
			}
		}
	}

	filtered := FilterByCustomer(t, keywords)
	result := FilterResult{
		Table:        filtered,
		Keywords:     keywords,
		OriginalRows: len(t.Rows()),
		FilteredRows: len(filtered.Rows()),
	}
	if result.Filtered() {
		summary := SummarizePayments(filtered)
		result.Summary = &summary
	}
	return result
}

var paymentPhrases = []string{
	"欠钱", "欠款", "未付", "还没付", "没付", "还欠", "待付", "应付",
	"owe", "owing", "unpaid", "outstanding", "not paid", "pending payment", "due",
}

// IsPaymentQuestion reports whether question asks who owes what
func IsPaymentQuestion(question string) bool {
	q := strings.ToLower(question)
	for _, p := range paymentPhrases {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

var companySuffixes = []string{" SDN BHD", " SDN. BHD.", " BHD", " S/B"}

// GroupContext finds the ledger customer a chat group is named after: the
// first customer whose name, without a company suffix, occurs in the group
// name. It returns nil when none does.
func GroupContext(groupName string, t ledger.Table) *models.CustomerContext {
	group := strings.ToUpper(strings.TrimSpace(groupName))
	if group == "" || !t.HasData() {
		return nil
	}
	cols := ledger.Resolve(t.Header())
	nameCol := cols.Get(ledger.FieldCustomerName)
	if !nameCol.IsFound() {
		return nil
	}
	codeCol := cols.Get(ledger.FieldCustomerCode)

	for _, row := range t.Rows() {
		name := ledger.Cell(row, nameCol)
		short := strings.ToUpper(name)
		for _, suffix := range companySuffixes {
			short = strings.TrimSuffix(short, suffix)
		}
		short = strings.TrimSpace(short)
		if len(short) < 3 || !strings.Contains(group, short) {
			continue
		}
		return &models.CustomerContext{
			CustomerName: name,
			CustomerCode: ledger.Cell(row, codeCol),
			GroupName:    groupName,
		}
	}
	return nil
}
