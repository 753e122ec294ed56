package metrics

import "github.com/prometheus/client_golang/prometheus"

// Settlement outcomes
const (
	SettlementOutcomeSettled     = "settled"
	SettlementOutcomeAlreadyPaid = "already_paid"
)

// Ledger counts what the caixa API does to payments and installments
type Ledger struct {
	paymentsCreated     *prometheus.CounterVec
	installmentsSettled *prometheus.CounterVec
	settlementReverts   prometheus.Counter
	failures            *prometheus.CounterVec
}

func NewLedger(registerer prometheus.Registerer) *Ledger {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Ledger{
		paymentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_created_total",
			Help:      "Payments recorded, by transaction type.",
		}, []string{"transaction_type"}),
		installmentsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_settled_total",
			Help:      "Settlement requests, by outcome.",
		}, []string{"outcome"}),
		settlementReverts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_reverts_total",
			Help:      "Administrative settlement reverts applied.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_failures_total",
			Help:      "Failed ledger operations, by operation and low-cardinality kind.",
		}, []string{"operation", "kind"}),
	}

	registerer.MustRegister(m.paymentsCreated, m.installmentsSettled, m.settlementReverts, m.failures)
	return m
}

func (m *Ledger) PaymentCreated(transactionType string) {
	if m == nil {
		return
	}
	m.paymentsCreated.WithLabelValues(transactionType).Inc()
}

func (m *Ledger) InstallmentSettled(outcome string) {
	if m == nil {
		return
	}
	m.installmentsSettled.WithLabelValues(outcome).Inc()
}

func (m *Ledger) SettlementReverted() {
	if m == nil {
		return
	}
	m.settlementReverts.Inc()
}

// Failure records err under operation; nil errors are ignored
func (m *Ledger) Failure(operation string, err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(operation, ClassifyFailure(err)).Inc()
}
