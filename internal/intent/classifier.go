package intent

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/llm"
	"invoiceqa/internal/logger"
	"invoiceqa/internal/metrics"
)

// DefaultModel is used when a Classifier is created without a model name
const DefaultModel = openai.GPT4oMini

// Classifier maps questions to Intents with a chat-completion model
type Classifier struct {
	client llm.ChatClient
	model  string
	log    zerolog.Logger
}

// NewClassifier creates a Classifier. A nil client makes every question fall back.
func NewClassifier(client llm.ChatClient, model string) *Classifier {
	if model == "" {
		model = DefaultModel
	}
	return &Classifier{
		client: client,
		model:  model,
		log:    logger.WithComponent("classifier"),
	}
}

// Classify returns the Intent of question. It never fails: a transport error
// or an unparseable reply yields Fallback(question). The table, when it has
// data, supplies the customer names the model may pick from.
func (c *Classifier) Classify(ctx context.Context, question string, table ledger.Table) Intent {
	start := time.Now()

	if c.client == nil {
		return c.fallback(question, NewClassificationError("Classify", ErrNoClient, ""))
	}

	request := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildPrompt(CustomerNames(table, customerSampleRows, customerListSize))},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0.1,
		MaxTokens:   300,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	raw, err := llm.Complete(ctx, c.client, request)
	if err != nil {
		return c.fallback(question, NewClassificationError("Complete", err, ""))
	}

	var wire classification
	if err := llm.DecodeJSON(raw, &wire); err != nil {
		return c.fallback(question, NewClassificationError("Decode", err, raw))
	}

	in, err := wire.toIntent(question)
	if err != nil {
		return c.fallback(question, NewClassificationError("Validate", err, raw))
	}

	if in.Customer != "" {
		in.Customer = NewCustomerResolver(CustomerNames(table, 0, 0)).Resolve(in.Customer)
	}

	metrics.IntentClassifications.WithLabelValues(string(in.Kind)).Inc()
	c.log.Debug().
		Str("intent", string(in.Kind)).
		Float64("confidence", in.Confidence).
		Str("customer", in.Customer).
		Str("invoice", in.InvoiceNumber).
		Str("language", string(in.Language)).
		Dur("duration", time.Since(start)).
		Msg("Question classified")

	return in
}

func (c *Classifier) fallback(question string, cause *ClassificationError) Intent {
	metrics.ClassificationFailures.WithLabelValues(cause.Op).Inc()
	metrics.IntentClassifications.WithLabelValues(string(KindGeneralQuery)).Inc()

	event := c.log.Warn().Err(cause)
	if cause.Raw != "" {
		event = event.Str("raw", truncate(cause.Raw, 200))
	}
	event.Msg("Classification failed, falling back to general query")

	return Fallback(question)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func buildPrompt(customers []string) string {
	var b strings.Builder

	b.WriteString("You classify questions sent to a sales invoice assistant. ")
	b.WriteString("Reply with one JSON object matching the schema below and nothing else.\n\n")

	b.WriteString("KNOWN CUSTOMERS:\n")
	if len(customers) == 0 {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(strings.Join(customers, ", "))
		b.WriteString("\n")
	}

	b.WriteString("\nINTENTS:\n")
	for _, k := range Kinds {
		b.WriteString("- ")
		b.WriteString(string(k))
		b.WriteString(": ")
		b.WriteString(kindGuide[k])
		b.WriteString("\n")
	}

	b.WriteString("\nSCHEMA:\n")
	b.WriteString(classificationSchema)
	b.WriteString("\n\nRULES:\n")
	for _, rule := range promptRules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteString("\n")
	}
	return b.String()
}

var kindGuide = map[Kind]string{
	KindPaymentStatus:     `whether one customer owes money or has unpaid invoices. "Does ABC owe money?", "ABC欠钱吗"`,
	KindAllUnpaid:         `every unpaid invoice across all customers. "who owes money?", "total outstanding"`,
	KindPaymentUpdate:     `marking an invoice paid or unpaid. "mark IV-2602-005 paid", "IV-2602-005 已付款"`,
	KindDateRange:         `invoices in a period. "January invoices", "last 7 days", "this month sales", "from 1/1 to 31/1"`,
	KindProductSearch:     `sales of a product. "sharkfin sales", "invoices with sea cucumber"`,
	KindTopCustomers:      `customer ranking. "top 5 customers", "best customers by revenue"`,
	KindInactiveCustomers: `customers who stopped ordering. "who hasn't ordered in 2 months?", "inactive customers"`,
	KindOverdueInvoices:   `unpaid invoices past a number of days. "overdue invoices", "who hasn't paid for 30 days?"`,
	KindInvoiceStats:      `counts and totals. "how many invoices?", "total sales this year"`,
	KindInvoiceDetails:    `one invoice. "show invoice IV-2501-006", "details for 2501006"`,
	KindCustomerQuery:     `one customer's invoices or history. "ABC's invoices", "recent orders for ABC"`,
	KindGeneralQuery:      `anything else, including analysis and comparisons. "why did sales drop?"`,
}

var promptRules = []string{
	"Pick customer names from the known customers; a case-insensitive partial match is fine.",
	"Invoice numbers may be written IV-2501-006, 2501006, IV2501006 or 2501-006.",
	`Use "zh" when the question contains Chinese characters, otherwise "en".`,
	"Use null for every parameter the question does not mention.",
	"Set confidence above 0.8 only when the question is unambiguous.",
	"Use general_query with low confidence for ambiguous questions.",
}
