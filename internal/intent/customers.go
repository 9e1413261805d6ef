package intent

import (
	"strings"

	"github.com/schollz/closestmatch"

	"invoiceqa/internal/ledger"
)

// limits for the customer list embedded in the classifier prompt
const (
	customerSampleRows = 200
	customerListSize   = 50
)

// CustomerNames returns up to limit distinct customer names from the first
// sampleRows data rows, in encounter order. Non-positive limits mean no limit.
func CustomerNames(t ledger.Table, sampleRows, limit int) []string {
	if !t.HasData() {
		return nil
	}
	col := ledger.Resolve(t.Header()).Get(ledger.FieldCustomerName)
	if !col.IsFound() {
		return nil
	}

	rows := t.Rows()
	if sampleRows > 0 && len(rows) > sampleRows {
		rows = rows[:sampleRows]
	}

	var names []string
	seen := make(map[string]bool)
	for _, row := range rows {
		name := ledger.Cell(row, col)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
		if limit > 0 && len(names) == limit {
			break
		}
	}
	return names
}

// CustomerResolver maps a customer name as typed onto a ledger name.
// Names that already occur inside a ledger name are kept as typed, since the
// customer queries match by substring; anything else is replaced by the
// closest ledger name.
type CustomerResolver struct {
	names   map[string]string // upper-cased -> ledger spelling
	matcher *closestmatch.ClosestMatch
}

// NewCustomerResolver indexes names
func NewCustomerResolver(names []string) *CustomerResolver {
	r := &CustomerResolver{names: make(map[string]string, len(names))}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		key := strings.ToUpper(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := r.names[key]; !ok {
			keys = append(keys, key)
		}
		r.names[key] = name
	}
	if len(keys) > 0 {
		r.matcher = closestmatch.New(keys, []int{2, 3})
	}
	return r
}

// Resolve returns name unchanged when it is empty or occurs in a ledger
// name, the closest ledger name otherwise, or name when nothing is close.
func (r *CustomerResolver) Resolve(name string) string {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" || r.matcher == nil {
		return name
	}
	for k := range r.names {
		if strings.Contains(k, key) {
			return name
		}
	}
	if match := r.matcher.Closest(key); match != "" {
		return r.names[match]
	}
	return name
}
