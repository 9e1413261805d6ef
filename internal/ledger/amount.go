package ledger

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount strips thousands separators and parses the leading number of s.
// Anything unreadable is zero.
func ParseAmount(s string) decimal.Decimal {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(cleaned); err == nil {
		return d
	}
	prefix := leadingNumber.FindString(cleaned)
	if prefix == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity reads a quantity cell with the same rules as ParseAmount
func ParseQuantity(s string) decimal.Decimal {
	return ParseAmount(s)
}
