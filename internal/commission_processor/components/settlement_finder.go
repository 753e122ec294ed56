package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/commission_processor/service"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

type SettlementFinderImpl struct {
	commissionRepo commission.Repository
	logger         *slog.Logger
}

func NewSettlementFinder(commissionRepo commission.Repository, logger *slog.Logger) service.SettlementFinder {
	return &SettlementFinderImpl{
		commissionRepo: commissionRepo,
		logger:         logger,
	}
}

// OutstandingSettlement returns the settlement entry still standing for a payment.
// It is nil when the payment has no entry or its last entry already reversed one.
func (f *SettlementFinderImpl) OutstandingSettlement(ctx context.Context, paymentID uuid.UUID) (*commission.Entry, error) {
	latest, err := f.commissionRepo.LatestForPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, commission.ErrEntryNotFound{}) {
			return nil, nil
		}
		f.logger.Error("Failed to look up settlement entry", "payment_id", paymentID.String(), "error", err)
		return nil, fmt.Errorf("settlement lookup failed for payment %s: %w", paymentID, err)
	}

	if latest.EventType != shared.LedgerEventPaymentSettled {
		return nil, nil
	}
	return latest, nil
}
