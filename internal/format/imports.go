package format

import (
	"invoiceqa/internal/importer"
	"invoiceqa/pkg/models"
)

// DetailImport renders the outcome of an invoice detail listing import
func (f *Formatter) DetailImport(res *importer.DetailResult, worksheet string, lang models.Language) string {
	if res == nil {
		return Pick(lang, "❌ CSV file is empty or has no valid data", "❌ CSV 文件为空或没有有效数据")
	}
	b := newBuilder(lang)
	if res.NewRecords == 0 {
		b.line("✅ All %d records already exist. No new data to add.", "✅ 全部 %d 条记录已存在，没有新数据。", res.TotalRecords)
		return b.String()
	}
	b.line("✅ Successfully processed invoice data!", "✅ 发票数据处理成功！")
	b.blank()
	b.line("📊 *Summary:*", "📊 *总结:*")
	b.line("• Total records: %d", "• 总记录: %d", res.TotalRecords)
	b.line("• New records added: %d", "• 新增记录: %d", res.NewRecords)
	b.line("• Duplicates skipped: %d", "• 跳过重复: %d", res.Duplicates)
	b.line("• Sheet: %s", "• 工作表: %s", worksheet)
	return b.String()
}

// OutstandingImport renders the outcome of an outstanding report import
func (f *Formatter) OutstandingImport(plan *importer.StatusPlan, lang models.Language) string {
	if plan == nil {
		return Pick(lang, "❌ No valid outstanding data found in CSV", "❌ CSV 中没有有效的欠款数据")
	}
	b := newBuilder(lang)
	if plan.RowsUpdated == 0 {
		b.line("✅ No updates needed - all payment statuses are already current", "✅ 无需更新，所有付款状态都是最新的")
	} else {
		b.line("✅ Payment status updated successfully!", "✅ 付款状态更新成功！")
	}
	b.blank()
	b.line("💰 *Payment Status Update:*", "💰 *付款状态更新:*")
	b.line("• Rows updated: %d", "• 更新行数: %d", plan.RowsUpdated)
	b.line("• Paid invoices: %d", "• 已付款: %d", plan.PaidCount)
	b.line("• Unpaid invoices: %d", "• 未付款: %d", plan.UnpaidCount)
	return b.String()
}
