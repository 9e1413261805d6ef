package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoiceqa_intent_classifications_total",
			Help: "Total number of questions classified, by intent",
		},
		[]string{"intent"},
	)

	ClassificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoiceqa_intent_classification_failures_total",
			Help: "Total number of classifications that fell back to general_query",
		},
		[]string{"reason"},
	)

	RoutingDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoiceqa_routing_decisions_total",
			Help: "Total number of routing decisions, by intent and outcome",
		},
		[]string{"intent", "outcome"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "invoiceqa_query_duration_seconds",
			Help: "Duration of a routed query including formatting",
		},
		[]string{"intent"},
	)

	FallbackAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoiceqa_fallback_answers_total",
			Help: "Total number of questions answered by the language model",
		},
		[]string{"result"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoiceqa_cache_lookups_total",
			Help: "Total number of cache lookups, by cache and result",
		},
		[]string{"cache", "result"},
	)

	PaymentUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoiceqa_payment_updates_total",
			Help: "Total number of invoices processed by payment commands",
		},
		[]string{"status", "result"},
	)

	Imports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "invoiceqa_imports_total",
			Help: "Total number of CSV imports, by kind and result",
		},
		[]string{"kind", "result"},
	)
)

// ObserveSince records the time elapsed since start for intent
func ObserveSince(intent string, start time.Time) {
	QueryDuration.WithLabelValues(intent).Observe(time.Since(start).Seconds())
}
