// Package metrics exposes Prometheus collectors for price resolution and schedule writes.
// A nil *Pricing is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Pricing records resolver and write activity.
type Pricing struct {
	resolutions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	writes      *prometheus.CounterVec
	relayed     *prometheus.CounterVec
}

// NewPricing registers the pricing collectors on reg. A nil registerer yields a no-op recorder.
func NewPricing(reg prometheus.Registerer) *Pricing {
	if reg == nil {
		return &Pricing{}
	}
	resolutions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricebook",
		Name:      "price_resolutions_total",
		Help:      "Effective price resolutions by outcome, source and scope.",
	}, []string{"outcome", "source", "scope"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "pricebook",
		Name:      "price_resolution_duration_seconds",
		Help:      "Latency of effective price resolution.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricebook",
		Name:      "schedule_writes_total",
		Help:      "Price schedule mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	relayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pricebook",
		Name:      "outbox_messages_total",
		Help:      "Outbox messages handed to the broker by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(resolutions, duration, writes, relayed)
	return &Pricing{
		resolutions: resolutions,
		duration:    duration,
		writes:      writes,
		relayed:     relayed,
	}
}

// ObserveResolution records one resolution attempt.
func (p *Pricing) ObserveResolution(outcome, source, scope string, elapsed time.Duration) {
	if p == nil || p.resolutions == nil {
		return
	}
	p.resolutions.WithLabelValues(normalizeLabel(outcome), normalizeLabel(source), normalizeLabel(scope)).Inc()
	p.duration.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

// IncWrite counts one schedule mutation.
func (p *Pricing) IncWrite(op, outcome string) {
	if p == nil || p.writes == nil {
		return
	}
	p.writes.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncRelayed counts one outbox message delivery attempt.
func (p *Pricing) IncRelayed(outcome string) {
	if p == nil || p.relayed == nil {
		return
	}
	p.relayed.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
