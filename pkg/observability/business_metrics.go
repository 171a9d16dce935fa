package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intent issuance metrics
	paymentIntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_intents_total",
		Help: "Total number of payment intent issuance attempts",
	}, []string{
		"currency",
		"outcome", // issued, rejected, unavailable, error
	})

	paymentIntentAmountCents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_intent_amount_cents_total",
		Help: "Total requested amount in minor units, for volume tracking",
	}, []string{
		"currency",
	})

	// Webhook event metrics
	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total webhook events received, by reconciliation outcome",
	}, []string{
		"event_type",
		"outcome", // applied, duplicate, deferred, superseded, ignored, rejected, error
	})

	// Reconciliation sweep metrics
	reconcileSweepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_sweeps_total",
		Help: "Total reconciliation sweep runs",
	})

	reconcileSweepEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_sweep_events_total",
		Help: "Events handled by reconciliation sweeps, by outcome",
	}, []string{
		"outcome", // applied, deferred, superseded, ignored, failed
	})

	reconcileUnappliedEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconcile_unapplied_events",
		Help: "Unapplied events scanned by the most recent sweep",
	})
)

// RecordIntentIssued records a payment intent issuance attempt. The
// amount counter only advances for intents the processor accepted.
func RecordIntentIssued(currency, outcome string, amount int64) {
	paymentIntentsTotal.WithLabelValues(currency, outcome).Inc()
	if outcome == "issued" {
		paymentIntentAmountCents.WithLabelValues(currency).Add(float64(amount))
	}
}

// RecordWebhookEvent records a received webhook event and its
// reconciliation outcome.
func RecordWebhookEvent(eventType, outcome string) {
	webhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordReconcileSweep records the result of a reconciliation sweep.
func RecordReconcileSweep(scanned, applied, deferred, superseded, ignored, failed int) {
	reconcileSweepsTotal.Inc()
	reconcileUnappliedEvents.Set(float64(scanned))
	reconcileSweepEvents.WithLabelValues("applied").Add(float64(applied))
	reconcileSweepEvents.WithLabelValues("deferred").Add(float64(deferred))
	reconcileSweepEvents.WithLabelValues("superseded").Add(float64(superseded))
	reconcileSweepEvents.WithLabelValues("ignored").Add(float64(ignored))
	reconcileSweepEvents.WithLabelValues("failed").Add(float64(failed))
}
