// Package payment marks invoices paid or unpaid in the ledger sheet.
//
// Commands are short admin messages such as "mark paid IV2506005 15/06/2025"
// or "IV-2506-005, IV-2506-006 unpaid". Every row of a matched invoice gets
// the new status and payment date.
package payment

import (
	"regexp"
	"strings"
	"time"

	"invoiceqa/internal/ledger"
)

// Status values written to the sheet
const (
	StatusPaid   = "Paid"
	StatusUnpaid = "Unpaid"
)

var paymentDatePattern = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{2,4})\b`)

// Command is a parsed status change
type Command struct {
	InvoiceNumbers []string // normalized, in message order
	Status         string   // StatusPaid or StatusUnpaid
	PaymentDate    string   // dd/mm/yyyy as typed, empty when absent
}

// ParseCommand recognizes a status change in text. It returns nil unless the
// text names at least one invoice and exactly one status. Questions ("is
// IV2506005 paid?") are not commands.
func ParseCommand(text string) *Command {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, "?？") {
		return nil
	}

	numbers := ledger.FindInvoiceNumbers(text)
	if len(numbers) == 0 {
		return nil
	}

	status := parseStatus(text)
	if status == "" {
		return nil
	}

	cmd := &Command{
		InvoiceNumbers: numbers,
		Status:         status,
	}
	if m := paymentDatePattern.FindStringSubmatch(text); m != nil {
		cmd.PaymentDate = m[1]
	}
	return cmd
}

func parseStatus(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "unpaid"), strings.Contains(text, "未付"):
		return StatusUnpaid
	case strings.Contains(lower, "paid"), strings.Contains(text, "已付"):
		return StatusPaid
	default:
		return ""
	}
}

// WithDefaultDate fills today's date for a paid command that carries none
func (c *Command) WithDefaultDate(now time.Time) {
	if c.Status == StatusPaid && c.PaymentDate == "" {
		c.PaymentDate = ledger.FormatDate(now)
	}
}
