package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/commission_processor/service"
	"github.com/caixa-installment-ledger/internal/domain/commission"
)

type EntryRecorderImpl struct {
	commissionRepo commission.Repository
	logger         *slog.Logger
}

func NewEntryRecorder(commissionRepo commission.Repository, logger *slog.Logger) service.EntryRecorder {
	return &EntryRecorderImpl{
		commissionRepo: commissionRepo,
		logger:         logger,
	}
}

// Record stores entry. A duplicate is passed through untouched so the caller can treat it as done.
func (r *EntryRecorderImpl) Record(ctx context.Context, entry *commission.Entry) error {
	logger := r.logger
	if entry.CorrelationID != "" {
		logger = r.logger.With("correlation_id", entry.CorrelationID)
	}

	if err := r.commissionRepo.Create(ctx, entry); err != nil {
		if !errors.Is(err, commission.ErrDuplicateEntry{}) {
			logger.Error("Failed to store commission entry",
				"event_id", entry.EventID.String(),
				"consultant_ref", entry.ConsultantRef.String(),
				"error", err,
			)
		}
		return err
	}

	logger.Debug("Commission entry stored",
		"event_id", entry.EventID.String(),
		"direction", string(entry.Direction),
	)
	return nil
}
