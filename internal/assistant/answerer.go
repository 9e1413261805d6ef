package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"invoiceqa/internal/ledger"
	"invoiceqa/internal/llm"
	"invoiceqa/internal/logger"
	"invoiceqa/pkg/models"
)

const (
	// DefaultMaxRows caps the ledger rows put in the system prompt
	DefaultMaxRows = 100

	answerMaxTokens = 1000
)

// HistoryStore keeps the recent turns of each chat
type HistoryStore interface {
	Recent(ctx context.Context, chatID string) ([]models.ChatMessage, error)
	Append(ctx context.Context, chatID string, msgs ...models.ChatMessage) error
}

// Question is an open-ended question for the language model
type Question struct {
	ChatID   string
	Text     string
	Customer *models.CustomerContext
	Filter   *FilterResult // how the table was narrowed, if it was
}

// Answerer answers questions the router could not, by handing the model
// the ledger and the chat history.
type Answerer struct {
	client    llm.ChatClient
	model     string
	maxRows   int
	worksheet string
	history   HistoryStore
	log       zerolog.Logger
}

// NewAnswerer creates an Answerer. history may be nil, in which case every
// question is answered without earlier turns.
func NewAnswerer(client llm.ChatClient, model string, maxRows int, worksheet string, history HistoryStore) *Answerer {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if worksheet == "" {
		worksheet = "Invoices"
	}
	return &Answerer{
		client:    client,
		model:     model,
		maxRows:   maxRows,
		worksheet: worksheet,
		history:   history,
		log:       logger.WithComponent("answerer"),
	}
}

// Answer asks the model q with t as business data. On success both turns
// are appended to the chat history.
func (a *Answerer) Answer(ctx context.Context, q Question, t ledger.Table) (string, error) {
	const op = "Answer"

	if a.client == nil {
		return "", fmt.Errorf("%s: no chat client configured", op)
	}

	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: a.systemPrompt(q, t),
	}}

	var past []models.ChatMessage
	if a.history != nil && q.ChatID != "" {
		var err error
		past, err = a.history.Recent(ctx, q.ChatID)
		if err != nil {
			a.log.Warn().Err(err).Str("chat_id", q.ChatID).Msg("Failed to load chat history, answering without it")
			past = nil
		}
	}
	for _, m := range past {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: q.Text})

	a.log.Debug().
		Str("chat_id", q.ChatID).
		Int("history_turns", len(past)).
		Int("rows", len(t.Rows())).
		Msg("Asking language model")

	answer, err := llm.Complete(ctx, a.client, openai.ChatCompletionRequest{
		Model:     a.model,
		Messages:  messages,
		MaxTokens: answerMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if a.history != nil && q.ChatID != "" {
		err := a.history.Append(ctx, q.ChatID,
			models.ChatMessage{Role: models.RoleUser, Content: q.Text},
			models.ChatMessage{Role: models.RoleAssistant, Content: answer},
		)
		if err != nil {
			a.log.Warn().Err(err).Str("chat_id", q.ChatID).Msg("Failed to store chat history")
		}
	}
	return answer, nil
}

const answerRules = `
IMPORTANT RULES:
- Keep answers SHORT and concise (max 10-15 lines)
- Only show the most important information
- Use bullet points for lists
- Use plain text formatting, no markdown headers
- Format money as RM X,XXX.XX
- If listing many items, show top 5-10 only
- Be direct and to the point

INVOICE DATA STRUCTURE:
- Each invoice can span several rows, one row per product line
- The same invoice number on several rows is ONE invoice
- When counting invoices, count UNIQUE invoice numbers
- When summing an invoice amount, add up all its rows

LANGUAGE:
- Answer in the same language as the question
- Chinese question, Chinese answer. English question, English answer

PRIVACY:
- Only discuss the customer this chat belongs to when a customer context is given
- Never reveal other customers' invoices to a customer chat`

// systemPrompt lays out the data, the rules and the chat's customer
func (a *Answerer) systemPrompt(q Question, t ledger.Table) string {
	var b strings.Builder
	b.WriteString("You are a business assistant with access to the following data:\n\n")
	b.WriteString(renderTable(a.worksheet, t, a.maxRows))

	if q.Filter != nil && q.Filter.Summary != nil {
		s := q.Filter.Summary
		fmt.Fprintf(&b, "\nPre-computed summary for %s (%d of %d rows):\n",
			strings.Join(q.Filter.Keywords, ", "), q.Filter.FilteredRows, q.Filter.OriginalRows)
		fmt.Fprintf(&b, "- Unpaid invoices: %d, total unpaid RM %s\n", len(s.UnpaidInvoices), s.TotalUnpaid.StringFixed(2))
		fmt.Fprintf(&b, "- Paid invoices: %d\n", s.PaidInvoices)
	}

	b.WriteString(answerRules)
	b.WriteString("\n")

	if c := q.Customer; !c.IsZero() {
		b.WriteString("\nCUSTOMER CONTEXT:\n")
		fmt.Fprintf(&b, "This chat belongs to customer %s", c.CustomerName)
		if c.CustomerCode != "" {
			fmt.Fprintf(&b, " (code %s)", c.CustomerCode)
		}
		b.WriteString(".\n")
		b.WriteString("When the user says \"we\", \"our\" or \"my\", or does not name a customer, assume they mean this customer.\n")
	}
	return b.String()
}

// renderTable prints the header and up to maxRows data rows, cells joined by " | "
func renderTable(name string, t ledger.Table, maxRows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", name)
	if !t.HasData() {
		b.WriteString("(no data)\n")
		return b.String()
	}

	b.WriteString(strings.Join(t.Header(), " | "))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", 50))
	b.WriteString("\n")

	rows := t.Rows()
	for i, row := range rows {
		if i == maxRows {
			fmt.Fprintf(&b, "... and %d more rows\n", len(rows)-maxRows)
			break
		}
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String()
}
