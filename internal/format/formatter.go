// Package format renders query results as chat replies in English or Chinese.
//
// Amounts are shown with two decimals and thousands grouping behind a
// configurable currency symbol. Dates are echoed in the ledger's own text.
// Long lists are cut to a fixed number of entries with an "and N more" line.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"invoiceqa/pkg/models"
)

// DefaultCurrency prefixes every rendered amount unless configured otherwise
const DefaultCurrency = "RM"

// list lengths shown before "and N more"
const (
	maxUnpaidCustomers = 10
	maxRangeInvoices   = 10
	maxProductMatches  = 5
	maxInactive        = 15
	maxOverdue         = 15
	maxHistory         = 10
	maxItemsPreview    = 2
)

// Formatter renders results; it holds no per-call state and is safe for concurrent use
type Formatter struct {
	currency string
	printer  *message.Printer
}

// New returns a Formatter using currency as the amount prefix
func New(currency string) *Formatter {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Formatter{
		currency: currency,
		printer:  message.NewPrinter(language.English),
	}
}

// Money renders d as "RM 1,234.56"
func (f *Formatter) Money(d decimal.Decimal) string {
	return f.currency + " " + f.printer.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// Pick chooses the English or Chinese text for lang
func Pick(lang models.Language, en, zh string) string {
	if lang == models.LanguageChinese {
		return zh
	}
	return en
}

type builder struct {
	strings.Builder
	lang models.Language
}

func newBuilder(lang models.Language) *builder {
	return &builder{lang: lang}
}

// line appends the language-appropriate format string and a newline
func (b *builder) line(en, zh string, args ...interface{}) {
	fmt.Fprintf(b, Pick(b.lang, en, zh), args...)
	b.WriteString("\n")
}

func (b *builder) blank() {
	b.WriteString("\n")
}

func (b *builder) more(remaining int, enNoun, zhNoun string) {
	if remaining <= 0 {
		return
	}
	b.line("...and %d more "+enNoun, "...还有 %d "+zhNoun, remaining)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
