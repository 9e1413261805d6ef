// Package intent turns a free-text question into a classified Intent and
// decides whether a deterministic query can answer it.
//
// Classification is delegated to a chat-completion model and never fails:
// an unusable reply degrades to a general_query Intent with confidence 0.5.
// Routing is a pure decision over a dispatch table keyed by Kind; questions
// the table cannot answer are deferred to the language model.
package intent

import (
	"strings"

	"invoiceqa/pkg/models"
)

// Kind is one of the closed set of question types
type Kind string

const (
	KindPaymentStatus     Kind = "payment_status"
	KindAllUnpaid         Kind = "all_unpaid"
	KindPaymentUpdate     Kind = "payment_update"
	KindDateRange         Kind = "date_range"
	KindProductSearch     Kind = "product_search"
	KindTopCustomers      Kind = "top_customers"
	KindInactiveCustomers Kind = "inactive_customers"
	KindOverdueInvoices   Kind = "overdue_invoices"
	KindInvoiceStats      Kind = "invoice_stats"
	KindInvoiceDetails    Kind = "invoice_details"
	KindCustomerQuery     Kind = "customer_query"
	KindGeneralQuery      Kind = "general_query"
)

// Kinds lists every Kind in classifier prompt order
var Kinds = []Kind{
	KindPaymentStatus,
	KindAllUnpaid,
	KindPaymentUpdate,
	KindDateRange,
	KindProductSearch,
	KindTopCustomers,
	KindInactiveCustomers,
	KindOverdueInvoices,
	KindInvoiceStats,
	KindInvoiceDetails,
	KindCustomerQuery,
	KindGeneralQuery,
}

// ParseKind matches s case-insensitively against Kinds
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// FallbackConfidence is assigned to Intents produced without a usable classification
const FallbackConfidence = 0.5

// DateRange is an inclusive dd/mm/yyyy period
type DateRange struct {
	Start string
	End   string
}

// Intent is a classified question. It is created per question and never stored.
type Intent struct {
	Kind          Kind
	Customer      string     // empty when absent
	InvoiceNumber string     // normalized, empty when absent
	DateRange     *DateRange // nil when absent
	ProductName   string     // empty when absent
	Days          int        // 0 when absent
	Limit         int        // 0 when absent
	Confidence    float64    // 0.0 to 1.0
	Language      models.Language
}

// Fallback is the Intent used when classification fails
func Fallback(question string) Intent {
	return Intent{
		Kind:       KindGeneralQuery,
		Confidence: FallbackConfidence,
		Language:   models.DetectLanguage(question),
	}
}
