package format

import (
	"errors"

	"invoiceqa/internal/payment"
	"invoiceqa/pkg/models"
)

// PaymentUpdate renders the outcome of a payment command
func (f *Formatter) PaymentUpdate(s *payment.Summary, lang models.Language) string {
	if s == nil || s.Succeeded() == 0 {
		return Pick(lang,
			"❌ Failed to update invoices. Check invoice numbers and try again.",
			"❌ 发票更新失败，请检查发票号码后重试。")
	}

	b := newBuilder(lang)
	b.line("✅ Payment status updated!", "✅ 付款状态已更新！")
	b.blank()
	b.line("💰 *Status:* %s", "💰 *状态:* %s", s.Status)
	if s.PaymentDate != "" {
		b.line("📅 *Date:* %s", "📅 *日期:* %s", s.PaymentDate)
	}
	b.blank()
	b.line("📊 *Summary:*", "📊 *总结:*")
	b.line("• Invoices processed: %d", "• 处理发票: %d", len(s.Results))
	b.line("• Successful: %d", "• 成功: %d", s.Succeeded())
	if s.Failed() > 0 {
		b.line("• Failed: %d", "• 失败: %d", s.Failed())
	}
	b.line("• Total line items updated: %d", "• 更新明细行: %d", s.RowsUpdated())
	b.blank()
	b.line("📋 *Invoices:*", "📋 *发票:*")
	for _, r := range s.Results {
		if r.OK() {
			b.line("✅ %s (%d items)", "✅ %s (%d 项)", r.InvoiceNumber, r.RowsUpdated)
			continue
		}
		reason := Pick(lang, "update failed", "更新失败")
		if errors.Is(r.Err, payment.ErrInvoiceNotFound) {
			reason = Pick(lang, "not found in sheet", "表格中找不到")
		}
		b.line("❌ %s - %s", "❌ %s - %s", r.InvoiceNumber, reason)
	}
	return b.String()
}
