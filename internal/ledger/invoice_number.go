package ledger

import (
	"regexp"
	"strings"
)

// InvoicePrefix starts every canonical invoice number
const InvoicePrefix = "IV"

var (
	canonicalNumber  = regexp.MustCompile(`^IV-\d{4}-\d{3}$`)
	bareDigits       = regexp.MustCompile(`^(\d{4})(\d{3})$`)
	gluedPrefix      = regexp.MustCompile(`^IV(\d{4})(\d{3})$`)
	dashedPrefix     = regexp.MustCompile(`^IV-(\d{4})(\d{3})$`)
	missingPrefix    = regexp.MustCompile(`^(\d{4})-(\d{3})$`)
	invoiceReference = regexp.MustCompile(`(?i)\b(?:IV-?\d{4}-?\d{3}|\d{4}-\d{3}|\d{7})\b`)
)

// NormalizeInvoiceNumber maps the shapes people type into IV-YYYY-NNN:
// "IV-2501-006", "2501006", "IV2501006", "IV-2501006" and "2501-006".
// Anything else comes back trimmed and upper-cased.
func NormalizeInvoiceNumber(s string) string {
	v := strings.ToUpper(strings.TrimSpace(s))
	if canonicalNumber.MatchString(v) {
		return v
	}
	for _, re := range []*regexp.Regexp{bareDigits, gluedPrefix, dashedPrefix, missingPrefix} {
		if m := re.FindStringSubmatch(v); m != nil {
			return InvoicePrefix + "-" + m[1] + "-" + m[2]
		}
	}
	return v
}

// FindInvoiceNumbers extracts every invoice reference in text, normalized,
// deduplicated and in order of appearance.
func FindInvoiceNumbers(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, match := range invoiceReference.FindAllString(text, -1) {
		number := NormalizeInvoiceNumber(match)
		if seen[number] {
			continue
		}
		seen[number] = true
		out = append(out, number)
	}
	return out
}

// SameInvoice compares two invoice numbers after trimming and upper-casing
func SameInvoice(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
