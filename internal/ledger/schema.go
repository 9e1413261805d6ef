package ledger

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Field is a semantic column of the invoice table
type Field string

const (
	FieldInvoiceNumber      Field = "invoiceNumber"
	FieldCustomerName       Field = "customerName"
	FieldCustomerCode       Field = "customerCode"
	FieldDocumentDate       Field = "documentDate"
	FieldAmount             Field = "amount"
	FieldPaymentStatus      Field = "paymentStatus"
	FieldPaymentDate        Field = "paymentDate"
	FieldProductDescription Field = "productDescription"
	FieldQuantity           Field = "quantity"
	FieldUnitPrice          Field = "unitPrice"
)

// Rule matches a header when its normalized text contains every Required
// token and none of the Excluded tokens. A field may have several rules; a
// header matching any of them counts.
type Rule struct {
	Field    Field
	Required []string
	Excluded []string
}

// DefaultRules describe the invoice detail listing exported by the accounting system
var DefaultRules = []Rule{
	{Field: FieldInvoiceNumber, Required: []string{"doc", "no"}},
	{Field: FieldInvoiceNumber, Required: []string{"invoice", "no"}, Excluded: []string{"date"}},
	{Field: FieldCustomerName, Required: []string{"debtor"}, Excluded: []string{"code"}},
	{Field: FieldCustomerName, Required: []string{"customer"}, Excluded: []string{"code"}},
	{Field: FieldCustomerCode, Required: []string{"debtor", "code"}},
	{Field: FieldCustomerCode, Required: []string{"customer", "code"}},
	{Field: FieldDocumentDate, Required: []string{"date"}, Excluded: []string{"payment"}},
	{Field: FieldAmount, Required: []string{"sub", "total"}},
	{Field: FieldPaymentStatus, Required: []string{"payment", "status"}},
	{Field: FieldPaymentDate, Required: []string{"payment", "date"}},
	{Field: FieldProductDescription, Required: []string{"description"}},
	{Field: FieldProductDescription, Required: []string{"item"}, Excluded: []string{"code"}},
	{Field: FieldProductDescription, Required: []string{"product"}, Excluded: []string{"code"}},
	{Field: FieldQuantity, Required: []string{"qty"}},
	{Field: FieldQuantity, Required: []string{"quantity"}},
	{Field: FieldUnitPrice, Required: []string{"unit", "price"}},
	{Field: FieldUnitPrice, Required: []string{"price"}, Excluded: []string{"total"}},
}

// Column is the resolved position of a field: either Found(index) or NotFound
type Column struct {
	index int
	found bool
}

// NotFound is the Column of a field no header matched
var NotFound = Column{}

// Found returns a Column at index i
func Found(i int) Column {
	return Column{index: i, found: true}
}

// Index returns the column index and whether the field was found
func (c Column) Index() (int, bool) {
	return c.index, c.found
}

// IsFound reports whether the field was found
func (c Column) IsFound() bool {
	return c.found
}

// ColumnMap is the result of resolving one header row
type ColumnMap struct {
	cols map[Field]Column
}

// Get returns the column for f, NotFound when unresolved
func (m ColumnMap) Get(f Field) Column {
	if c, ok := m.cols[f]; ok {
		return c
	}
	return NotFound
}

// Has reports whether every given field was resolved
func (m ColumnMap) Has(fields ...Field) bool {
	for _, f := range fields {
		if !m.Get(f).IsFound() {
			return false
		}
	}
	return true
}

// Resolver maps header text to semantic fields using an ordered rule list
type Resolver struct {
	rules  []Rule
	fields []Field
}

// NewResolver builds a resolver; fields are resolved in first-appearance order of their rules
func NewResolver(rules []Rule) *Resolver {
	r := &Resolver{rules: rules}
	seen := make(map[Field]bool)
	for _, rule := range rules {
		if !seen[rule.Field] {
			seen[rule.Field] = true
			r.fields = append(r.fields, rule.Field)
		}
	}
	return r
}

var defaultResolver = NewResolver(DefaultRules)

// Resolve resolves header against DefaultRules
func Resolve(header []string) ColumnMap {
	return defaultResolver.Resolve(header)
}

// Resolve returns, for every field, the leftmost header matching one of its rules.
// The result depends only on the header text.
func (r *Resolver) Resolve(header []string) ColumnMap {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizeHeader(h)
	}

	m := ColumnMap{cols: make(map[Field]Column, len(r.fields))}
	for _, field := range r.fields {
		m.cols[field] = NotFound
		for i, h := range normalized {
			if h != "" && r.matches(field, h) {
				m.cols[field] = Found(i)
				break
			}
		}
	}
	return m
}

func (r *Resolver) matches(field Field, header string) bool {
	for _, rule := range r.rules {
		if rule.Field == field && rule.matches(header) {
			return true
		}
	}
	return false
}

func (rule Rule) matches(header string) bool {
	for _, token := range rule.Required {
		if !strings.Contains(header, token) {
			return false
		}
	}
	for _, token := range rule.Excluded {
		if strings.Contains(header, token) {
			return false
		}
	}
	return true
}

// normalizeHeader folds full-width characters and case so "Ｄｏｃ Ｎｏ" and "doc no" compare equal
func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFKC.String(h)))
}
