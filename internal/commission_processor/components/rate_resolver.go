package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/commission_processor/service"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/google/uuid"
)

type RateResolverImpl struct {
	directory directory.Reader
	logger    *slog.Logger
}

func NewRateResolver(dir directory.Reader, logger *slog.Logger) service.RateResolver {
	return &RateResolverImpl{
		directory: dir,
		logger:    logger,
	}
}

// ResolveRate returns the consultant's rate as configured right now. An inactive
// consultant still earns commission on payments they made; a consultant missing
// from the directory makes the event unprocessable.
func (r *RateResolverImpl) ResolveRate(ctx context.Context, consultantRef uuid.UUID) (int, error) {
	consultant, err := r.directory.GetConsultant(ctx, consultantRef)
	if err != nil {
		if errors.Is(err, directory.ErrReferenceNotFound{}) {
			r.logger.Warn("Consultant not found in directory", "consultant_ref", consultantRef.String())
			return 0, fmt.Errorf("%w: %v", commission.ErrInvalidEvent, err)
		}
		r.logger.Error("Failed to resolve consultant rate", "consultant_ref", consultantRef.String(), "error", err)
		return 0, fmt.Errorf("failed to resolve commission rate for consultant %s: %w", consultantRef, err)
	}

	return consultant.CommissionRateBps, nil
}
