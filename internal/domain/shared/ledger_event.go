package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidTransactionType = errors.New("invalid transaction type")

// LedgerEventType names the payment lifecycle changes published to Kafka
type LedgerEventType string

const (
	// LedgerEventPaymentSettled fires when the last pending installment of a payment is paid.
	LedgerEventPaymentSettled LedgerEventType = "PAYMENT_SETTLED"
	// LedgerEventPaymentUnsettled fires when a fully settled payment stops being settled,
	// through an administrative revert or deletion.
	LedgerEventPaymentUnsettled LedgerEventType = "PAYMENT_UNSETTLED"
)

// LedgerEvent defines a Kafka message describing a payment settlement change.
// It carries everything the commission processor needs so it never reads the ledger tables.
type LedgerEvent struct {
	EventID         uuid.UUID       `json:"event_id"`
	Type            LedgerEventType `json:"type"`
	PaymentID       uuid.UUID       `json:"payment_id"`
	ClientRef       uuid.UUID       `json:"client_ref"`
	ConsultantRef   uuid.UUID       `json:"consultant_ref"`
	ServiceRef      uuid.UUID       `json:"service_ref"`
	TransactionType TransactionType `json:"transaction_type"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	EffectiveDate   time.Time       `json:"effective_date"`
	Reason          string          `json:"reason,omitempty"`
	CorrelationID   string          `json:"correlation_id,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}
