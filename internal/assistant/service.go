// Package assistant turns one chat message into one reply. Payment commands
// from admins are applied to the ledger, questions a query can answer are
// routed to the query engine, and everything else goes to the language
// model with a ledger narrowed to the customers involved.
package assistant

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"invoiceqa/internal/format"
	"invoiceqa/internal/intent"
	"invoiceqa/internal/ledger"
	"invoiceqa/internal/logger"
	"invoiceqa/internal/metrics"
	"invoiceqa/internal/payment"
	"invoiceqa/pkg/models"
)

// TableSource supplies the current ledger
type TableSource interface {
	ReadTable(ctx context.Context) (ledger.Table, error)
}

// invalidator is implemented by cached sources
type invalidator interface {
	Invalidate(ctx context.Context) error
}

// IntentClassifier maps a question to an intent
type IntentClassifier interface {
	Classify(ctx context.Context, question string, table ledger.Table) intent.Intent
}

// PaymentApplier writes payment commands to the ledger
type PaymentApplier interface {
	Apply(ctx context.Context, cmd *payment.Command) (*payment.Summary, error)
}

// Source says which path produced a Reply
type Source string

const (
	SourcePayment Source = "payment"
	SourceQuery   Source = "query"
	SourceAI      Source = "ai"
)

// Request is one incoming chat message
type Request struct {
	ChatID    string
	Text      string
	GroupName string                  // chat title, used to find the chat's customer
	Customer  *models.CustomerContext // overrides GroupName when set
	Admin     bool                    // sender may update payment status
}

// Reply is the answer to a Request
type Reply struct {
	Text   string
	Source Source
	Intent *intent.Intent // nil for payment commands
}

// Deps are the collaborators of a Service. Payments may be nil, which
// disables payment commands.
type Deps struct {
	Source     TableSource
	Classifier IntentClassifier
	Router     *intent.Router
	Answerer   *Answerer
	Payments   PaymentApplier
	Formatter  *format.Formatter
}

// Service answers chat messages
type Service struct {
	deps Deps
	now  func() time.Time
	log  zerolog.Logger
}

// NewService creates a Service from deps
func NewService(deps Deps) *Service {
	if deps.Formatter == nil {
		deps.Formatter = format.New(format.DefaultCurrency)
	}
	return &Service{
		deps: deps,
		now:  time.Now,
		log:  logger.WithComponent("assistant"),
	}
}

// WithClock replaces the clock used for default payment dates
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Ask answers req. Errors are returned only when the ledger cannot be read;
// model failures degrade to an apology.
func (s *Service) Ask(ctx context.Context, req Request) (*Reply, error) {
	const op = "Ask"

	lang := models.DetectLanguage(req.Text)
	log := logger.FromContext(ctx).With().
		Str("component", "assistant").
		Str("chat_id", req.ChatID).
		Logger()

	if req.Admin && s.deps.Payments != nil {
		if cmd := payment.ParseCommand(req.Text); cmd != nil {
			return s.applyPayment(ctx, cmd, lang)
		}
	}

	table, err := s.deps.Source.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to load ledger: %w", op, err)
	}

	customer := req.Customer
	if customer.IsZero() {
		customer = GroupContext(req.GroupName, table)
	}

	in := s.deps.Classifier.Classify(ctx, req.Text, table)
	if in.Customer == "" && !customer.IsZero() && needsCustomer(in.Kind) {
		in.Customer = customer.CustomerName
	}

	resp := s.deps.Router.Route(intent.Request{Intent: in, Question: req.Text}, table)
	if resp.Handled {
		return &Reply{Text: resp.Text, Source: SourceQuery, Intent: &resp.Intent}, nil
	}

	filter := SmartFilter(table, req.Text, customer)
	log.Debug().
		Strs("keywords", filter.Keywords).
		Int("rows", filter.FilteredRows).
		Int("total_rows", filter.OriginalRows).
		Bool("payment_question", IsPaymentQuestion(req.Text)).
		Msg("Ledger filtered for language model")

	q := Question{ChatID: req.ChatID, Text: req.Text, Customer: customer}
	if filter.Filtered() {
		q.Filter = &filter
	}

	answer, err := s.deps.Answerer.Answer(ctx, q, filter.Table)
	if err != nil {
		metrics.FallbackAnswers.WithLabelValues("error").Inc()
		log.Error().Err(err).Msg("Language model answer failed")
		return &Reply{Text: apology(lang), Source: SourceAI, Intent: &resp.Intent}, nil
	}
	metrics.FallbackAnswers.WithLabelValues("ok").Inc()
	return &Reply{Text: answer, Source: SourceAI, Intent: &resp.Intent}, nil
}

func (s *Service) applyPayment(ctx context.Context, cmd *payment.Command, lang models.Language) (*Reply, error) {
	cmd.WithDefaultDate(s.now())

	summary, err := s.deps.Payments.Apply(ctx, cmd)
	if err != nil {
		metrics.PaymentUpdates.WithLabelValues(cmd.Status, "error").Inc()
		s.log.Error().
			Err(err).
			Strs("invoices", cmd.InvoiceNumbers).
			Str("status", cmd.Status).
			Msg("Payment update failed")
		text := format.Pick(lang,
			"❌ Failed to update payment status: "+err.Error(),
			"❌ 更新付款状态失败: "+err.Error())
		return &Reply{Text: text, Source: SourcePayment}, nil
	}

	result := "ok"
	if summary.Failed() > 0 {
		result = "partial"
	}
	metrics.PaymentUpdates.WithLabelValues(cmd.Status, result).Inc()

	if inv, ok := s.deps.Source.(invalidator); ok && summary.RowsUpdated() > 0 {
		if err := inv.Invalidate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("Failed to invalidate ledger cache after payment update")
		}
	}

	return &Reply{Text: s.deps.Formatter.PaymentUpdate(summary, lang), Source: SourcePayment}, nil
}

func needsCustomer(k intent.Kind) bool {
	return k == intent.KindPaymentStatus || k == intent.KindCustomerQuery
}

func apology(lang models.Language) string {
	return format.Pick(lang,
		"Sorry, I encountered an error processing your question. Please try again.",
		"抱歉，处理您的问题时出错，请重试。")
}
