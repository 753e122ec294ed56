package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reasons a ledger event produces no commission entry
const (
	SkipReasonZeroAmount       = "zero_amount"
	SkipReasonDuplicate        = "duplicate"
	SkipReasonInvalidEvent     = "invalid_event"
	SkipReasonNothingToReverse = "nothing_to_reverse"
)

// Outbox publish outcomes
const (
	PublishOutcomePublished = "published"
	PublishOutcomeRetry     = "retry"
	PublishOutcomeFailed    = "failed"
)

// Commission counts the commission processor's work
type Commission struct {
	entries         *prometheus.CounterVec
	skipped         *prometheus.CounterVec
	outboxPublished *prometheus.CounterVec
}

func NewCommission(registerer prometheus.Registerer) *Commission {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Commission{
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_entries_total",
			Help:      "Commission entries recorded, by direction.",
		}, []string{"direction"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commission_events_skipped_total",
			Help:      "Ledger events that produced no commission entry, by reason.",
		}, []string{"reason"}),
		outboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_messages_published_total",
			Help:      "Outbox publish attempts, by outcome.",
		}, []string{"outcome"}),
	}

	registerer.MustRegister(m.entries, m.skipped, m.outboxPublished)
	return m
}

func (m *Commission) EntryRecorded(direction string) {
	if m == nil {
		return
	}
	m.entries.WithLabelValues(direction).Inc()
}

func (m *Commission) EventSkipped(reason string) {
	if m == nil {
		return
	}
	m.skipped.WithLabelValues(reason).Inc()
}

func (m *Commission) OutboxPublished(outcome string) {
	if m == nil {
		return
	}
	m.outboxPublished.WithLabelValues(outcome).Inc()
}
