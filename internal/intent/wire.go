package intent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"

	"invoiceqa/internal/ledger"
	"invoiceqa/pkg/models"
)

// classification is the JSON object the model is asked to return
type classification struct {
	Intent        string         `json:"intent" jsonschema:"enum=payment_status,enum=all_unpaid,enum=payment_update,enum=date_range,enum=product_search,enum=top_customers,enum=inactive_customers,enum=overdue_invoices,enum=invoice_stats,enum=invoice_details,enum=customer_query,enum=general_query"`
	Customer      *string        `json:"customer" jsonschema_description:"Exact customer name from the list, or null"`
	InvoiceNumber *string        `json:"invoiceNumber" jsonschema_description:"Invoice number as mentioned, or null"`
	DateRange     *wireDateRange `json:"dateRange" jsonschema_description:"Inclusive period, or null"`
	ProductName   *string        `json:"productName" jsonschema_description:"Product searched for, or null"`
	Days          flexNumber     `json:"days" jsonschema_description:"Number of days for relative periods (7 for last week, 30 for last month), or null"`
	Limit         flexNumber     `json:"limit" jsonschema_description:"Number of results asked for, or null"`
	Confidence    flexNumber     `json:"confidence" jsonschema_description:"0.0 to 1.0; above 0.8 only when the question is unambiguous"`
	Language      string         `json:"language" jsonschema:"enum=zh,enum=en"`
}

type wireDateRange struct {
	Start string `json:"start" jsonschema_description:"DD/MM/YYYY"`
	End   string `json:"end" jsonschema_description:"DD/MM/YYYY"`
}

// flexNumber accepts a JSON number, a numeric string or null
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	*n = flexNumber{}
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	n.value, n.set = v, true
	return nil
}

// JSONSchema describes flexNumber as a nullable number
func (flexNumber) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "number"},
			{Type: "null"},
		},
	}
}

func (n flexNumber) positiveInt() int {
	if !n.set || n.value < 1 {
		return 0
	}
	return int(math.Round(n.value))
}

// classificationSchema is the JSON schema embedded in the classifier prompt
var classificationSchema = func() string {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	s := r.Reflect(&classification{})
	s.Version = ""
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("intent: marshal classification schema: %v", err))
	}
	return string(b)
}()

// toIntent validates the model's object. Only an unknown intent kind is an
// error; every other field degrades to absent.
func (c *classification) toIntent(question string) (Intent, error) {
	kind, ok := ParseKind(c.Intent)
	if !ok {
		return Intent{}, fmt.Errorf("%w: %q", ErrUnknownKind, c.Intent)
	}

	in := Intent{
		Kind:        kind,
		Customer:    text(c.Customer),
		ProductName: text(c.ProductName),
		Days:        c.Days.positiveInt(),
		Limit:       c.Limit.positiveInt(),
		Confidence:  clamp(c.Confidence.value),
	}

	if number := text(c.InvoiceNumber); number != "" {
		in.InvoiceNumber = ledger.NormalizeInvoiceNumber(number)
	} else if found := ledger.FindInvoiceNumbers(question); len(found) > 0 {
		in.InvoiceNumber = found[0]
	}

	if c.DateRange != nil {
		start, end := strings.TrimSpace(c.DateRange.Start), strings.TrimSpace(c.DateRange.End)
		if start != "" && end != "" {
			in.DateRange = &DateRange{Start: start, End: end}
		}
	}

	switch strings.ToLower(strings.TrimSpace(c.Language)) {
	case string(models.LanguageChinese), string(models.LanguageEnglish):
		in.Language = models.ParseLanguage(strings.ToLower(strings.TrimSpace(c.Language)))
	default:
		in.Language = models.DetectLanguage(question)
	}

	return in, nil
}

// text trims p, treating nil and the literal strings "null"/"none" as absent
func text(p *string) string {
	if p == nil {
		return ""
	}
	s := strings.TrimSpace(*p)
	switch strings.ToLower(s) {
	case "null", "none", "n/a":
		return ""
	}
	return s
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
