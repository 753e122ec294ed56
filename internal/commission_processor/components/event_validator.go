package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/commission_processor/service"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/shared"
)

type EventValidatorImpl struct {
	commissionRepo commission.Repository
	logger         *slog.Logger
}

func NewEventValidator(commissionRepo commission.Repository, logger *slog.Logger) service.EventValidator {
	return &EventValidatorImpl{
		commissionRepo: commissionRepo,
		logger:         logger,
	}
}

// Validate checks the ledger event carries what derivation needs
func (v *EventValidatorImpl) Validate(ctx context.Context, event *shared.LedgerEvent) error {
	if err := commission.ValidateEvent(event); err != nil {
		return err
	}

	switch event.Type {
	case shared.LedgerEventPaymentSettled, shared.LedgerEventPaymentUnsettled:
	default:
		return fmt.Errorf("%w: event type %q", commission.ErrInvalidEvent, event.Type)
	}

	if !event.TransactionType.Valid() {
		return fmt.Errorf("%w: transaction type %q", commission.ErrInvalidEvent, event.TransactionType)
	}

	return nil
}

// CheckIdempotency reports whether the event already produced an entry
func (v *EventValidatorImpl) CheckIdempotency(ctx context.Context, event *shared.LedgerEvent) (bool, error) {
	logger := v.logger
	if event.CorrelationID != "" {
		logger = v.logger.With("correlation_id", event.CorrelationID)
	}

	existing, err := v.commissionRepo.GetByEventID(ctx, event.EventID)
	if err != nil && !errors.Is(err, commission.ErrEntryNotFound{}) {
		logger.Error("Failed to check commission ledger for idempotency", "event_id", event.EventID.String(), "error", err)
		return false, fmt.Errorf("idempotency check failed for event %s: %w", event.EventID.String(), err)
	}

	if existing != nil {
		logger.Info("Ledger event already processed (idempotency)", "event_id", event.EventID.String())
		return true, nil
	}

	return false, nil
}
