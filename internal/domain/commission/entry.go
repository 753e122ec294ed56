package commission

import (
	"errors"
	"fmt"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidEvent = errors.New("invalid ledger event")

	hundred = decimal.NewFromInt(100)
)

// Entry is one credit or debit in a consultant's commission ledger.
// It is keyed by the ledger event that produced it, so replaying an event never doubles it.
type Entry struct {
	EventID       uuid.UUID              `json:"event_id"`
	EventType     shared.LedgerEventType `json:"event_type"`
	PaymentID     uuid.UUID              `json:"payment_id"`
	ConsultantRef uuid.UUID              `json:"consultant_ref"`
	ServiceRef    uuid.UUID              `json:"service_ref"`
	ClientRef     uuid.UUID              `json:"client_ref"`
	Direction     shared.TransactionType `json:"direction"`
	BaseAmount    decimal.Decimal        `json:"base_amount"`
	RateBps       int                    `json:"rate_bps"`
	Amount        decimal.Decimal        `json:"amount"`
	EffectiveDate time.Time              `json:"effective_date"`
	Reason        string                 `json:"reason,omitempty"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Derive computes value * percentage / 100, rounded half away from zero to cents.
func Derive(value, percentage decimal.Decimal) decimal.Decimal {
	return value.Mul(percentage).Div(hundred).Round(2)
}

// PercentageFromBps converts basis points into a percentage (250 bps = 2.50 %)
func PercentageFromBps(bps int) decimal.Decimal {
	return decimal.New(int64(bps), -2)
}

// DirectionFor maps a ledger event onto the commission direction.
// A settlement follows the payment's direction; an unsettlement corrects it.
func DirectionFor(eventType shared.LedgerEventType, paymentType shared.TransactionType) (shared.TransactionType, error) {
	if !paymentType.Valid() {
		return "", fmt.Errorf("%w: transaction type %q", ErrInvalidEvent, paymentType)
	}
	switch eventType {
	case shared.LedgerEventPaymentSettled:
		return paymentType, nil
	case shared.LedgerEventPaymentUnsettled:
		return paymentType.Opposite(), nil
	}
	return "", fmt.Errorf("%w: event type %q", ErrInvalidEvent, eventType)
}

// NewEntry derives the commission entry for event at the consultant's rate.
// Amount may be zero; callers skip recording it.
func NewEntry(event *shared.LedgerEvent, rateBps int, now time.Time) (*Entry, error) {
	if err := ValidateEvent(event); err != nil {
		return nil, err
	}
	if rateBps < 0 {
		return nil, fmt.Errorf("%w: negative commission rate %d", ErrInvalidEvent, rateBps)
	}
	direction, err := DirectionFor(event.Type, event.TransactionType)
	if err != nil {
		return nil, err
	}

	return &Entry{
		EventID:       event.EventID,
		EventType:     event.Type,
		PaymentID:     event.PaymentID,
		ConsultantRef: event.ConsultantRef,
		ServiceRef:    event.ServiceRef,
		ClientRef:     event.ClientRef,
		Direction:     direction,
		BaseAmount:    event.TotalAmount,
		RateBps:       rateBps,
		Amount:        Derive(event.TotalAmount, PercentageFromBps(rateBps)),
		EffectiveDate: event.EffectiveDate,
		Reason:        event.Reason,
		CorrelationID: event.CorrelationID,
		CreatedAt:     now,
	}, nil
}

// NewReversal derives the correction for an unsettle event from the entry the
// settlement actually recorded, so rate changes in between cannot leave a residue.
func NewReversal(event *shared.LedgerEvent, settled *Entry, now time.Time) (*Entry, error) {
	if err := ValidateEvent(event); err != nil {
		return nil, err
	}
	if event.Type != shared.LedgerEventPaymentUnsettled {
		return nil, fmt.Errorf("%w: event type %q cannot reverse a settlement", ErrInvalidEvent, event.Type)
	}
	if settled == nil || settled.PaymentID != event.PaymentID {
		return nil, fmt.Errorf("%w: no settlement entry for payment %s", ErrInvalidEvent, event.PaymentID)
	}

	return &Entry{
		EventID:       event.EventID,
		EventType:     event.Type,
		PaymentID:     event.PaymentID,
		ConsultantRef: settled.ConsultantRef,
		ServiceRef:    settled.ServiceRef,
		ClientRef:     settled.ClientRef,
		Direction:     settled.Direction.Opposite(),
		BaseAmount:    settled.BaseAmount,
		RateBps:       settled.RateBps,
		Amount:        settled.Amount,
		EffectiveDate: event.EffectiveDate,
		Reason:        event.Reason,
		CorrelationID: event.CorrelationID,
		CreatedAt:     now,
	}, nil
}

// ValidateEvent checks the fields commission derivation relies on
func ValidateEvent(event *shared.LedgerEvent) error {
	switch {
	case event == nil:
		return fmt.Errorf("%w: empty event", ErrInvalidEvent)
	case event.EventID == uuid.Nil:
		return fmt.Errorf("%w: missing event_id", ErrInvalidEvent)
	case event.PaymentID == uuid.Nil:
		return fmt.Errorf("%w: missing payment_id", ErrInvalidEvent)
	case event.ConsultantRef == uuid.Nil:
		return fmt.Errorf("%w: missing consultant_ref", ErrInvalidEvent)
	case !event.TotalAmount.IsPositive():
		return fmt.Errorf("%w: total_amount must be positive", ErrInvalidEvent)
	case event.EffectiveDate.IsZero():
		return fmt.Errorf("%w: missing effective_date", ErrInvalidEvent)
	}
	return nil
}
