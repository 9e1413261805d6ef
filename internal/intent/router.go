package intent

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"invoiceqa/internal/format"
	"invoiceqa/internal/ledger"
	"invoiceqa/internal/logger"
	"invoiceqa/internal/metrics"
	"invoiceqa/internal/query"
)

// DefaultThreshold is the lowest confidence that is routed
const DefaultThreshold = 0.6

// Outcome is the result of a routing decision
type Outcome string

const (
	OutcomeRouted   Outcome = "routed"
	OutcomeDeferred Outcome = "deferred"
)

// Reason explains a deferral
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonLowConfidence    Reason = "low_confidence"
	ReasonMissingParameter Reason = "missing_parameter"
	ReasonNoHandler        Reason = "no_handler"
)

// Config holds the threshold and the defaults applied to absent parameters
type Config struct {
	Threshold    float64
	OverdueDays  int
	InactiveDays int
	TopLimit     int
	HistoryLimit int
}

// DefaultConfig returns the production routing configuration
func DefaultConfig() Config {
	return Config{
		Threshold:    DefaultThreshold,
		OverdueDays:  query.DefaultOverdueDays,
		InactiveDays: query.DefaultInactiveDays,
		TopLimit:     query.DefaultTopLimit,
		HistoryLimit: query.DefaultHistoryLimit,
	}
}

// Request is a classified question
type Request struct {
	Intent   Intent
	Question string
}

// Decision is the pure outcome of routing a Request
type Decision struct {
	Kind    Kind
	Outcome Outcome
	Reason  Reason
}

// Routed reports whether a deterministic query will answer the request
func (d Decision) Routed() bool {
	return d.Outcome == OutcomeRouted
}

// Response is what the caller shows or hands to the fallback answerer
type Response struct {
	Handled bool   // Text answers the question
	UseAI   bool   // the question must go to the language model
	Intent  Intent // the classified intent
	Text    string // empty unless Handled
}

// handler answers one Kind from a table snapshot
type handler func(r *Router, req Request, t ledger.Table) string

// route is one dispatch table entry. Kinds with a nil run are always deferred.
type route struct {
	ready func(req Request) bool
	run   handler
}

func always(Request) bool { return true }

func hasCustomer(req Request) bool { return req.Intent.Customer != "" }

var routes = map[Kind]route{
	KindPaymentStatus:     {ready: hasCustomer, run: (*Router).paymentStatus},
	KindAllUnpaid:         {ready: always, run: (*Router).allUnpaid},
	KindPaymentUpdate:     {},
	KindDateRange:         {ready: hasPeriod, run: (*Router).dateRange},
	KindProductSearch:     {ready: func(req Request) bool { return req.Intent.ProductName != "" }, run: (*Router).productSearch},
	KindTopCustomers:      {ready: always, run: (*Router).topCustomers},
	KindInactiveCustomers: {ready: always, run: (*Router).inactiveCustomers},
	KindOverdueInvoices:   {ready: always, run: (*Router).overdue},
	KindInvoiceStats:      {},
	KindInvoiceDetails:    {ready: func(req Request) bool { return req.Intent.InvoiceNumber != "" }, run: (*Router).invoiceDetails},
	KindCustomerQuery:     {ready: hasCustomer, run: (*Router).customerHistory},
	KindGeneralQuery:      {},
}

// Router dispatches classified questions to query operations
type Router struct {
	cfg       Config
	formatter *format.Formatter
	now       func() time.Time
	log       zerolog.Logger
}

// NewRouter creates a Router rendering with formatter
func NewRouter(cfg Config, formatter *format.Formatter) *Router {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if formatter == nil {
		formatter = format.New(format.DefaultCurrency)
	}
	return &Router{
		cfg:       cfg,
		formatter: formatter,
		now:       time.Now,
		log:       logger.WithComponent("router"),
	}
}

// WithClock replaces the clock used by the time-relative queries
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// Decide is Routed only when confidence is at least the threshold, the kind
// has a handler and its mandatory parameters are present.
func (r *Router) Decide(req Request) Decision {
	d := Decision{Kind: req.Intent.Kind, Outcome: OutcomeDeferred}

	rt, ok := routes[req.Intent.Kind]
	switch {
	case !ok || rt.run == nil:
		d.Reason = ReasonNoHandler
	case req.Intent.Confidence < r.cfg.Threshold:
		d.Reason = ReasonLowConfidence
	case !rt.ready(req):
		d.Reason = ReasonMissingParameter
	default:
		d.Outcome = OutcomeRouted
	}
	return d
}

// Route decides and, when routed, answers the request from t
func (r *Router) Route(req Request, t ledger.Table) Response {
	d := r.Decide(req)
	metrics.RoutingDecisions.WithLabelValues(string(d.Kind), string(d.Outcome)).Inc()

	if !d.Routed() {
		r.log.Debug().
			Str("intent", string(d.Kind)).
			Float64("confidence", req.Intent.Confidence).
			Str("reason", string(d.Reason)).
			Msg("Deferring to language model")
		return Response{UseAI: true, Intent: req.Intent}
	}

	start := time.Now()
	text := routes[d.Kind].run(r, req, t)
	metrics.ObserveSince(string(d.Kind), start)

	r.log.Info().
		Str("intent", string(d.Kind)).
		Float64("confidence", req.Intent.Confidence).
		Dur("duration", time.Since(start)).
		Msg("Question answered by query")

	return Response{Handled: true, Intent: req.Intent, Text: text}
}

// thisMonth phrases select the current calendar month
var thisMonth = []string{"this month", "本月", "这个月", "当月"}

func mentionsThisMonth(question string) bool {
	q := strings.ToLower(question)
	for _, p := range thisMonth {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

func hasPeriod(req Request) bool {
	in := req.Intent
	return in.Days > 0 || in.DateRange != nil || mentionsThisMonth(req.Question)
}

// unpaidOnly phrases restrict a customer history to unpaid invoices
var unpaidOnly = []string{"unpaid", "欠", "未付"}

func asksUnpaidOnly(question string) bool {
	q := strings.ToLower(question)
	for _, p := range unpaidOnly {
		if strings.Contains(q, p) {
			return true
		}
	}
	return false
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// warnNoData logs ledgers that cannot answer a summary query. The reply
// then reads as unreadable data, never as an all-clear.
func (r *Router) warnNoData(kind Kind, err error) {
	if err == nil {
		return
	}
	r.log.Warn().
		Err(err).
		Str("intent", string(kind)).
		Msg("Ledger is missing columns required by the query")
}

func (r *Router) paymentStatus(req Request, t ledger.Table) string {
	res, _ := query.PaymentStatus(t, req.Intent.Customer)
	return r.formatter.PaymentStatus(res, req.Intent.Customer, req.Intent.Language)
}

func (r *Router) allUnpaid(req Request, t ledger.Table) string {
	res, err := query.AllUnpaid(t)
	r.warnNoData(KindAllUnpaid, err)
	return r.formatter.AllUnpaid(res, req.Intent.Language)
}

func (r *Router) dateRange(req Request, t ledger.Table) string {
	var (
		res *query.DateRangeResult
		in  = req.Intent
	)
	switch {
	case in.Days > 0:
		res, _ = query.Recent(t, in.Days, r.now())
	case in.DateRange != nil:
		res, _ = query.DateRange(t, in.DateRange.Start, in.DateRange.End)
	default:
		res, _ = query.CurrentMonth(t, r.now())
	}
	return r.formatter.DateRange(res, in.Language)
}

func (r *Router) productSearch(req Request, t ledger.Table) string {
	res, _ := query.ProductSearch(t, req.Intent.ProductName)
	return r.formatter.ProductSearch(res, req.Intent.ProductName, req.Intent.Language)
}

func (r *Router) topCustomers(req Request, t ledger.Table) string {
	res, _ := query.TopCustomers(t, orDefault(req.Intent.Limit, r.cfg.TopLimit), query.SortByRevenue)
	return r.formatter.TopCustomers(res, req.Intent.Language)
}

func (r *Router) inactiveCustomers(req Request, t ledger.Table) string {
	days := orDefault(req.Intent.Days, r.cfg.InactiveDays)
	res, err := query.InactiveCustomers(t, days, r.now())
	r.warnNoData(KindInactiveCustomers, err)
	return r.formatter.InactiveCustomers(res, req.Intent.Language)
}

func (r *Router) overdue(req Request, t ledger.Table) string {
	days := orDefault(req.Intent.Days, r.cfg.OverdueDays)
	res, err := query.Overdue(t, days, r.now())
	r.warnNoData(KindOverdueInvoices, err)
	return r.formatter.Overdue(res, req.Intent.Language)
}

func (r *Router) invoiceDetails(req Request, t ledger.Table) string {
	inv, _ := query.InvoiceDetails(t, req.Intent.InvoiceNumber)
	return r.formatter.InvoiceDetails(inv, req.Intent.Language)
}

func (r *Router) customerHistory(req Request, t ledger.Table) string {
	res, _ := query.CustomerHistory(t, req.Intent.Customer, query.HistoryFilter{
		UnpaidOnly: asksUnpaidOnly(req.Question),
		Limit:      orDefault(req.Intent.Limit, r.cfg.HistoryLimit),
	})
	return r.formatter.CustomerHistory(res, req.Intent.Language)
}
