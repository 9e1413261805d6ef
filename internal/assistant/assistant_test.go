package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceqa/internal/cache"
	"invoiceqa/internal/format"
	"invoiceqa/internal/intent"
	"invoiceqa/internal/ledger"
	"invoiceqa/internal/payment"
	"invoiceqa/pkg/models"
)

var header = []string{"Debtor Code", "Debtor Name", "Doc Date", "Description", "Qty", "Unit Price", "Doc No", "Sub Total", "Payment Status", "Payment Date"}

func sampleTable() ledger.Table {
	return ledger.Table{
		header,
		{"300-A001", "ABC TRADING", "15/01/2026", "Frozen Prawn 1kg", "2", "50", "IV-2601-001", "100", "Unpaid", ""},
		{"300-A001", "ABC TRADING", "15/01/2026", "Sea Cucumber", "1", "200", "IV-2601-001", "200", "Unpaid", ""},
		{"300-X002", "XYZ SEAFOOD", "20/01/2026", "Frozen Prawn 2kg", "3", "90", "IV-2601-002", "270", "Paid", "25/01/2026"},
		{"300-X002", "XYZ SEAFOOD", "01/02/2026", "Squid", "4", "25", "IV-2602-003", "100", "Unpaid", ""},
		{"300-C003", "CHEF TAM CUISINE", "05/11/2025", "Sharkfin", "1", "1,500.00", "IV-2511-004", "1,500.00", "Paid", "01/12/2025"},
	}
}

var now = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type stubClient struct {
	reply    string
	err      error
	requests []openai.ChatCompletionRequest
}

func (s *stubClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.reply}}},
	}, nil
}

type fakeSource struct {
	table       ledger.Table
	err         error
	invalidated int
}

func (f *fakeSource) ReadTable(context.Context) (ledger.Table, error) {
	return f.table, f.err
}

func (f *fakeSource) Invalidate(context.Context) error {
	f.invalidated++
	return nil
}

type fakeClassifier struct {
	in       intent.Intent
	question string
}

func (f *fakeClassifier) Classify(_ context.Context, question string, _ ledger.Table) intent.Intent {
	f.question = question
	return f.in
}

type fakeApplier struct {
	cmd     *payment.Command
	summary *payment.Summary
	err     error
}

func (f *fakeApplier) Apply(_ context.Context, cmd *payment.Command) (*payment.Summary, error) {
	f.cmd = cmd
	return f.summary, f.err
}

type fixture struct {
	source     *fakeSource
	classifier *fakeClassifier
	client     *stubClient
	payments   *fakeApplier
	history    *cache.History
	service    *Service
}

func newFixture(in intent.Intent) *fixture {
	f := &fixture{
		source:     &fakeSource{table: sampleTable()},
		classifier: &fakeClassifier{in: in},
		client:     &stubClient{reply: "model answer"},
		payments:   &fakeApplier{},
		history:    cache.NewHistory(nil, 10, time.Hour, "test:"),
	}
	formatter := format.New("RM")
	router := intent.NewRouter(intent.DefaultConfig(), formatter).WithClock(func() time.Time { return now })
	f.service = NewService(Deps{
		Source:     f.source,
		Classifier: f.classifier,
		Router:     router,
		Answerer:   NewAnswerer(f.client, "gpt-4o-mini", 50, "Invoice Detail Listing", f.history),
		Payments:   f.payments,
		Formatter:  formatter,
	}).WithClock(func() time.Time { return now })
	return f
}

func TestAsk_RoutedQuery(t *testing.T) {
	f := newFixture(intent.Intent{Kind: intent.KindPaymentStatus, Customer: "ABC TRADING", Confidence: 0.9, Language: models.LanguageEnglish})

	reply, err := f.service.Ask(context.Background(), Request{ChatID: "c1", Text: "How much does ABC TRADING owe?"})
	require.NoError(t, err)
	assert.Equal(t, SourceQuery, reply.Source)
	assert.Contains(t, reply.Text, "ABC TRADING")
	assert.Contains(t, reply.Text, "RM 300.00")
	assert.Empty(t, f.client.requests)
}

func TestAsk_GroupContextFillsCustomer(t *testing.T) {
	f := newFixture(intent.Intent{Kind: intent.KindPaymentStatus, Confidence: 0.9, Language: models.LanguageEnglish})

	reply, err := f.service.Ask(context.Background(), Request{ChatID: "c1", Text: "How much do we owe", GroupName: "ABC Trading Orders"})
	require.NoError(t, err)
	assert.Equal(t, SourceQuery, reply.Source)
	require.NotNil(t, reply.Intent)
	assert.Equal(t, "ABC TRADING", reply.Intent.Customer)
}

func TestAsk_DeferredToModel(t *testing.T) {
	f := newFixture(intent.Intent{Kind: intent.KindGeneralQuery, Confidence: 0.9, Language: models.LanguageEnglish})
	ctx := context.Background()

	reply, err := f.service.Ask(ctx, Request{ChatID: "c1", Text: "What did XYZ SEAFOOD order recently"})
	require.NoError(t, err)
	assert.Equal(t, SourceAI, reply.Source)
	assert.Equal(t, "model answer", reply.Text)

	require.Len(t, f.client.requests, 1)
	system := f.client.requests[0].Messages[0].Content
	assert.Contains(t, system, "XYZ SEAFOOD")
	assert.NotContains(t, system, "CHEF TAM CUISINE")
	assert.Contains(t, system, "Pre-computed summary")

	history, err := f.history.Recent(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, "model answer", history[1].Content)

	_, err = f.service.Ask(ctx, Request{ChatID: "c1", Text: "and before that"})
	require.NoError(t, err)
	require.Len(t, f.client.requests, 2)
	// system, two earlier turns, question
	assert.Len(t, f.client.requests[1].Messages, 4)
}

func TestAsk_ModelFailureApologizes(t *testing.T) {
	f := newFixture(intent.Intent{Kind: intent.KindGeneralQuery, Confidence: 0.9})
	f.client.err = errors.New("rate limited")

	reply, err := f.service.Ask(context.Background(), Request{ChatID: "c1", Text: "总结一下本季度的销售"})
	require.NoError(t, err)
	assert.Equal(t, SourceAI, reply.Source)
	assert.Contains(t, reply.Text, "抱歉")
}

func TestAsk_LedgerUnavailable(t *testing.T) {
	f := newFixture(intent.Intent{Kind: intent.KindAllUnpaid, Confidence: 0.9})
	f.source.err = errors.New("sheets down")

	_, err := f.service.Ask(context.Background(), Request{Text: "who owes money"})
	assert.Error(t, err)
}

func TestAsk_PaymentCommand(t *testing.T) {
	f := newFixture(intent.Intent{Kind: intent.KindGeneralQuery, Confidence: 0.9})
	f.payments.summary = &payment.Summary{
		Status:  payment.StatusPaid,
		Results: []payment.Result{{InvoiceNumber: "IV-2601-001", RowsUpdated: 2}},
	}

	reply, err := f.service.Ask(context.Background(), Request{Text: "IV2601001 paid", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, SourcePayment, reply.Source)
	assert.Contains(t, reply.Text, "Payment status updated")

	require.NotNil(t, f.payments.cmd)
	assert.Equal(t, []string{"IV-2601-001"}, f.payments.cmd.InvoiceNumbers)
	assert.Equal(t, "15/03/2026", f.payments.cmd.PaymentDate)
	assert.Equal(t, 1, f.source.invalidated)
	assert.Empty(t, f.classifier.question)
}

func TestAsk_PaymentCommandNeedsAdmin(t *testing.T) {
	f := newFixture(intent.Intent{Kind: intent.KindGeneralQuery, Confidence: 0.9})

	reply, err := f.service.Ask(context.Background(), Request{Text: "IV2601001 paid"})
	require.NoError(t, err)
	assert.Nil(t, f.payments.cmd)
	assert.Equal(t, SourceAI, reply.Source)
	assert.Equal(t, "IV2601001 paid", f.classifier.question)
}

func TestAsk_PaymentFailure(t *testing.T) {
	f := newFixture(intent.Intent{})
	f.payments.err = payment.ErrNoStatusColumn

	reply, err := f.service.Ask(context.Background(), Request{Text: "IV-2601-001 unpaid", Admin: true})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "❌")
	assert.Zero(t, f.source.invalidated)
}
