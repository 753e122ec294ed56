package service

import (
	"context"
	"fmt"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/outbox"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// newLedgerEvent describes a settlement change of p effective on date
func newLedgerEvent(ctx context.Context, eventType shared.LedgerEventType, p *payment.Payment, date time.Time, reason string, now time.Time) *shared.LedgerEvent {
	return &shared.LedgerEvent{
		EventID:         uuid.New(),
		Type:            eventType,
		PaymentID:       p.ID,
		ClientRef:       p.ClientRef,
		ConsultantRef:   p.ConsultantRef,
		ServiceRef:      p.ServiceRef,
		TransactionType: p.TransactionType,
		TotalAmount:     p.TotalAmount,
		EffectiveDate:   date,
		Reason:          reason,
		CorrelationID:   shared.CorrelationIDFromContext(ctx),
		OccurredAt:      now,
	}
}

// enqueue writes event into the outbox through repo, which must be bound to the caller's transaction
func enqueue(ctx context.Context, repo outbox.Repository, event *shared.LedgerEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		return fmt.Errorf("failed to build outbox message for event %s: %w", event.EventID, err)
	}
	return repo.Create(ctx, message)
}
