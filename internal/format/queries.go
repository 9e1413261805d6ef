package format

import (
	"strings"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/query"
	"invoiceqa/pkg/models"
)

// NoData is the reply for a ledger missing the columns a query needs
func (f *Formatter) NoData(lang models.Language) string {
	return Pick(lang,
		"❌ Unable to read invoice data. The sheet is missing the invoice number, status or date columns.",
		"❌ 无法读取发票数据，表格缺少发票号、付款状态或日期列。")
}

// AllUnpaid renders the outstanding summary. A nil result means the ledger
// could not be read and is never reported as "all paid".
func (f *Formatter) AllUnpaid(res *query.AllUnpaidResult, lang models.Language) string {
	if res == nil {
		return f.NoData(lang)
	}
	if !res.HasUnpaid {
		return Pick(lang, "✅ No unpaid invoices! All invoices are paid.", "✅ 没有未付款的发票！所有发票都已付款。")
	}

	b := newBuilder(lang)
	b.line("💰 All Unpaid Invoices Summary", "💰 未付款发票汇总")
	b.blank()
	b.line("Total Customers: %d", "总客户: %d", res.TotalCustomers)
	b.line("Unpaid Invoices: %d", "未付发票数: %d", res.TotalInvoices)
	b.line("Total Outstanding: %s", "总欠款: %s", f.Money(res.TotalAmount))
	b.blank()
	b.line("📋 Customer Breakdown:", "📋 客户明细:")
	b.blank()

	for i, c := range res.Customers {
		if i == maxUnpaidCustomers {
			break
		}
		b.line("👤 %s", "👤 %s", c.Name)
		b.line("   %s (%d invoices)", "   %s (%d 张发票)", f.Money(c.Total), c.Count())
		b.blank()
	}
	if extra := len(res.Customers) - maxUnpaidCustomers; extra > 0 {
		b.more(extra, "customers", "个客户")
		b.blank()
	}

	b.WriteString(Pick(lang, "💡 Type a customer name to see detailed invoices", "💡 输入客户名查看详细发票"))
	return b.String()
}

// DateRange renders invoices within a period
func (f *Formatter) DateRange(res *query.DateRangeResult, lang models.Language) string {
	if res == nil {
		return Pick(lang, "❌ No invoices found for this date range", "❌ 未找到该日期范围的发票")
	}

	b := newBuilder(lang)
	b.line("📅 Date Range Query Results", "📅 日期范围查询结果")
	b.blank()
	b.line("Period: %s to %s", "期间: %s 至 %s", res.StartDate, res.EndDate)
	b.blank()
	b.line("📊 Summary:", "📊 统计:")
	b.line("• Total Invoices: %d", "• 总发票: %d", res.TotalInvoices)
	b.line("• Total Amount: %s", "• 总金额: %s", f.Money(res.TotalAmount))
	b.line("• Paid: %d | Unpaid: %d", "• 已付: %d | 未付: %d", res.PaidCount, res.UnpaidCount)

	if len(res.Invoices) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.blank()
	b.line("📋 Invoice List:", "📋 发票列表:")
	b.blank()
	for i, inv := range res.Invoices {
		if i == maxRangeInvoices {
			break
		}
		b.line("%s %s (%s)", "%s %s (%s)", statusIcon(inv.Status), inv.Number, inv.Date)
		b.line("   %s", "   %s", inv.Customer)
		b.line("   %s", "   %s", f.Money(inv.Amount))
		b.blank()
	}
	b.more(len(res.Invoices)-maxRangeInvoices, "invoices", "张发票")
	return strings.TrimRight(b.String(), "\n")
}

// ProductSearch renders product sales; term is used when res is nil or empty
func (f *Formatter) ProductSearch(res *query.ProductSearchResult, term string, lang models.Language) string {
	if res == nil || !res.HasMatches() {
		if res != nil {
			term = res.SearchTerm
		}
		if term == "" {
			term = Pick(lang, "this product", "该产品")
		}
		return Pick(lang, "❌ No invoices found for \""+term+"\"", "❌ 未找到 \""+term+"\" 的相关发票")
	}

	b := newBuilder(lang)
	b.line("🔍 Product Search: \"%s\"", "🔍 产品搜索结果: \"%s\"", res.SearchTerm)
	b.blank()
	b.line("📊 Summary:", "📊 总结:")
	b.line("• Invoices: %d", "• 发票数: %d", res.TotalInvoices)
	b.line("• Total Quantity: %s", "• 总数量: %s", res.TotalQuantity.String())
	b.line("• Total Amount: %s", "• 总金额: %s", f.Money(res.TotalAmount))
	b.blank()
	b.line("📦 Product Breakdown:", "📦 产品明细:")
	b.blank()
	for _, p := range res.Breakdown {
		b.line("• %s", "• %s", p.Product)
		b.line("  Qty: %s | Amount: %s", "  数量: %s | 金额: %s", p.Quantity.String(), f.Money(p.Amount))
		b.blank()
	}

	b.line("📋 Recent Invoices:", "📋 最近发票:")
	b.blank()
	for i, m := range res.Matches {
		if i == maxProductMatches {
			break
		}
		b.line("%s (%s)", "%s (%s)", m.InvoiceNumber, m.Date)
		b.line("%s | %s × %s", "%s | %s × %s", m.Customer, m.Quantity.String(), f.Money(m.Amount))
		b.blank()
	}
	return strings.TrimRight(b.String(), "\n")
}

// TopCustomers renders the customer ranking with medals for the first three
func (f *Formatter) TopCustomers(res *query.TopCustomersResult, lang models.Language) string {
	if res == nil || len(res.Customers) == 0 {
		return Pick(lang, "❌ No customer data found", "❌ 未找到客户数据")
	}

	b := newBuilder(lang)
	b.line("👑 Top %d Customers", "👑 排名前 %d 客户", len(res.Customers))
	b.blank()
	for i, c := range res.Customers {
		b.line("%s %s", "%s %s", medal(i+1), c.Name)
		b.line("   Revenue: %s", "   总收入: %s", f.Money(c.TotalRevenue))
		b.line("   Invoices: %d", "   发票数: %d", c.InvoiceCount)
		if c.UnpaidAmount.IsPositive() {
			b.line("   ⚠️ Unpaid: %s", "   ⚠️ 未付: %s", f.Money(c.UnpaidAmount))
		}
		b.blank()
	}
	b.WriteString(Pick(lang, "💡 Total Customers: ", "💡 总客户数: "))
	b.WriteString(itoa(res.TotalCustomers))
	return b.String()
}

// InactiveCustomers renders customers past the inactivity window; nil renders NoData
func (f *Formatter) InactiveCustomers(res *query.InactiveCustomersResult, lang models.Language) string {
	if res == nil {
		return f.NoData(lang)
	}
	days := res.CutoffDays
	if days <= 0 {
		days = query.DefaultInactiveDays
	}
	if res.InactiveCount() == 0 {
		return Pick(lang,
			"✅ All customers have ordered in the last "+itoa(days)+" days!",
			"✅ 过去 "+itoa(days)+" 天内所有客户都有订单！")
	}

	b := newBuilder(lang)
	b.line("😴 Inactive Customers (%d+ days) - %d total", "😴 %d 天内未下单客户 (%d)", days, res.InactiveCount())
	b.blank()
	for i, c := range res.Customers {
		if i == maxInactive {
			break
		}
		b.line("👤 %s", "👤 %s", c.Name)
		b.line("   Last Order: %d days ago", "   最后订单: %d 天前", c.DaysSinceLastOrder)
		b.line("   Last Amount: %s", "   最后金额: %s", f.Money(c.LastAmount))
		b.blank()
	}
	if extra := len(res.Customers) - maxInactive; extra > 0 {
		b.more(extra, "customers", "个客户")
		b.blank()
	}
	b.WriteString(Pick(lang, "💡 Suggestion: Reach out to re-engage these customers", "💡 建议: 联系这些客户了解情况"))
	return b.String()
}

// Overdue renders aging unpaid invoices with a severity marker; nil renders NoData
func (f *Formatter) Overdue(res *query.OverdueResult, lang models.Language) string {
	if res == nil {
		return f.NoData(lang)
	}
	days := res.CutoffDays
	if days <= 0 {
		days = query.DefaultOverdueDays
	}
	if res.OverdueCount() == 0 {
		return Pick(lang,
			"✅ No invoices overdue for more than "+itoa(days)+" days!",
			"✅ 没有超过 "+itoa(days)+" 天的逾期发票！")
	}

	b := newBuilder(lang)
	b.line("⏰ Overdue Invoices (%d+ days)", "⏰ 逾期发票 (%d+ 天)", days)
	b.blank()
	b.line("📊 Summary:", "📊 总结:")
	b.line("• Overdue Count: %d", "• 逾期发票: %d", res.OverdueCount())
	b.line("• Total Overdue: %s", "• 总逾期金额: %s", f.Money(res.TotalAmount))
	b.blank()
	b.line("📋 Overdue Details:", "📋 逾期明细:")
	b.blank()
	for i, inv := range res.Invoices {
		if i == maxOverdue {
			break
		}
		b.line("%s %s", "%s %s", severityIcon(inv.Severity()), inv.Number)
		b.line("   %s", "   %s", inv.Customer)
		b.line("   Overdue: %d days | %s", "   逾期: %d 天 | 金额: %s", inv.DaysOverdue, f.Money(inv.Amount))
		b.line("   Date: %s", "   开票日期: %s", inv.Date)
		b.blank()
	}
	if extra := len(res.Invoices) - maxOverdue; extra > 0 {
		b.more(extra, "invoices", "张发票")
		b.blank()
	}
	b.WriteString(Pick(lang, "💡 🔴 > 60 days | 🟠 > 30 days | 🟡 < 30 days", "💡 🔴 > 60天 | 🟠 > 30天 | 🟡 < 30天"))
	return b.String()
}

// PaymentStatus renders what one customer owes; customer is used when res is nil
func (f *Formatter) PaymentStatus(res *query.PaymentStatusResult, customer string, lang models.Language) string {
	if res == nil {
		return Pick(lang, "No invoice records found for this customer", "找不到该客户的发票记录")
	}
	name := res.DisplayName()
	if name == "" {
		name = customer
	}

	if !res.HasUnpaid {
		b := newBuilder(lang)
		b.line("✅ %s has no outstanding", "✅ %s 没有欠款", name)
		b.blank()
		b.WriteString(Pick(lang, "All "+itoa(res.TotalInvoices)+" invoices paid", "所有 "+itoa(res.TotalInvoices)+" 张发票已付清"))
		return b.String()
	}

	b := newBuilder(lang)
	b.line("⚠️ %s has outstanding", "⚠️ %s 有欠款", name)
	b.blank()
	b.line("*Unpaid Invoices (%d):*", "*未付款发票 (%d):*", len(res.UnpaidInvoices))
	b.blank()
	for _, inv := range res.UnpaidInvoices {
		b.line("• %s (%s)", "• %s (%s)", inv.Number, inv.Date)
		b.line("  %s", "  %s", f.Money(inv.Amount))
		if len(inv.Items) > 0 {
			shown := inv.Items
			suffix := ""
			if len(shown) > maxItemsPreview {
				shown = shown[:maxItemsPreview]
				suffix = "..."
			}
			b.line("  %s%s", "  %s%s", strings.Join(shown, ", "), suffix)
		}
		b.blank()
	}
	b.line("*Total Outstanding: %s*", "*总欠款: %s*", f.Money(res.TotalUnpaid))
	b.blank()
	b.WriteString(Pick(lang, "Paid: "+itoa(res.PaidCount)+" invoices", "已付清: "+itoa(res.PaidCount)+" 张发票"))
	return b.String()
}

// InvoiceDetails renders one invoice with every line item
func (f *Formatter) InvoiceDetails(inv *ledger.Invoice, lang models.Language) string {
	if inv == nil {
		return Pick(lang, "Invoice not found", "找不到该发票")
	}
	paid := inv.PaymentStatus() == ledger.StatusPaid

	b := newBuilder(lang)
	b.line("📋 *Invoice Details*", "📋 *发票详情*")
	b.blank()
	b.line("*%s*", "*%s*", inv.Number)
	b.line("Customer: %s", "客户: %s", inv.Customer)
	b.line("Date: %s", "日期: %s", inv.Date)
	if paid {
		b.line("Status: ✅ Paid", "状态: ✅ 已付款")
		if inv.PaymentDate != "" {
			b.line("Payment Date: %s", "付款日期: %s", inv.PaymentDate)
		}
	} else {
		b.line("Status: ⚠️ Unpaid", "状态: ⚠️ 未付款")
	}
	b.blank()
	b.line("*Items (%d):*", "*项目 (%d):*", inv.ItemCount())
	b.blank()
	for _, item := range inv.LineItems {
		b.line("• %s", "• %s", item.Description)
		b.line("  %s × %s = %s", "  %s × %s = %s", item.Quantity.String(), f.Money(item.UnitPrice), f.Money(item.Amount))
		b.blank()
	}
	b.line("*Total: %s*", "*总计: %s*", f.Money(inv.Total))
	return strings.TrimRight(b.String(), "\n")
}

// CustomerHistory renders a customer's invoice list
func (f *Formatter) CustomerHistory(res *query.CustomerHistoryResult, lang models.Language) string {
	if res == nil || len(res.Invoices) == 0 {
		return Pick(lang, "No invoices found for this customer", "找不到该客户的发票记录")
	}

	b := newBuilder(lang)
	b.line("📊 *%s*", "📊 *%s*", res.CustomerName)
	b.blank()
	b.line("Total Invoices: %d", "总发票: %d", res.TotalInvoices)
	b.line("Paid: %d | Unpaid: %d", "已付: %d | 未付: %d", res.PaidCount, res.UnpaidCount)
	b.line("Total Amount: %s", "总金额: %s", f.Money(res.TotalAmount))
	b.blank()
	for i, inv := range res.Invoices {
		if i == maxHistory {
			break
		}
		b.line("%s %s (%s)", "%s %s (%s)", statusIcon(inv.Status), inv.Number, inv.Date)
		b.line("   %s • %d items", "   %s • %d 项", f.Money(inv.Total), inv.ItemCount)
		b.blank()
	}
	b.more(res.TotalInvoices-maxHistory, "invoices", "张发票")
	return strings.TrimRight(b.String(), "\n")
}

// Stats renders invoice counts by status
func (f *Formatter) Stats(res *query.StatsResult, lang models.Language) string {
	if res == nil {
		return Pick(lang, "❌ No invoice data found", "❌ 未找到发票数据")
	}

	b := newBuilder(lang)
	b.line("📊 Invoice Statistics", "📊 发票统计")
	b.blank()
	b.line("• Total Invoices: %d", "• 总发票: %d", res.TotalInvoices)
	b.line("• Paid: %d (%s)", "• 已付: %d (%s)", res.PaidCount, f.Money(res.PaidAmount))
	b.line("• Unpaid: %d (%s)", "• 未付: %d (%s)", res.UnpaidCount, f.Money(res.UnpaidAmount))
	return strings.TrimRight(b.String(), "\n")
}

func statusIcon(status string) string {
	if ledger.ParseStatus(status) == ledger.StatusPaid {
		return "✅"
	}
	return "⚠️"
}

func severityIcon(s query.Severity) string {
	switch s {
	case query.SeverityCritical:
		return "🔴"
	case query.SeverityHigh:
		return "🟠"
	default:
		return "🟡"
	}
}

func medal(rank int) string {
	switch rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return itoa(rank) + "."
	}
}
