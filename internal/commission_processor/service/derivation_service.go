package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
)

type DerivationServiceImpl struct {
	validator    EventValidator
	rateResolver RateResolver
	settlements  SettlementFinder
	recorder     EntryRecorder
	clock        clock.Clock
	metrics      *metrics.Commission
	logger       *slog.Logger
}

func NewDerivationService(
	validator EventValidator,
	rateResolver RateResolver,
	settlements SettlementFinder,
	recorder EntryRecorder,
	clk clock.Clock,
	m *metrics.Commission,
	logger *slog.Logger,
) DerivationService {
	return &DerivationServiceImpl{
		validator:    validator,
		rateResolver: rateResolver,
		settlements:  settlements,
		recorder:     recorder,
		clock:        clk,
		metrics:      m,
		logger:       logger,
	}
}

// ProcessEvent derives and records the commission entry for one ledger event.
// Errors wrapping commission.ErrInvalidEvent can never succeed on retry; every
// other error is transient.
func (s *DerivationServiceImpl) ProcessEvent(ctx context.Context, event *shared.LedgerEvent) error {
	logger := s.logger
	if event != nil && event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	// 1. Validate the event
	if err := s.validator.Validate(ctx, event); err != nil {
		logger.Error("Ledger event validation failed", "error", err)
		s.metrics.EventSkipped(metrics.SkipReasonInvalidEvent)
		return err
	}

	logger = logger.With("event_id", event.EventID.String(), "payment_id", event.PaymentID.String())
	logger.Info("Deriving commission", "event_type", string(event.Type), "consultant_ref", event.ConsultantRef.String())

	// 2. Check idempotency
	skip, err := s.validator.CheckIdempotency(ctx, event)
	if err != nil {
		return err
	}
	if skip {
		s.metrics.EventSkipped(metrics.SkipReasonDuplicate)
		return nil
	}

	// 3. Derive the entry
	entry, err := s.deriveEntry(ctx, event, logger)
	if err != nil || entry == nil {
		return err
	}
	if entry.Amount.IsZero() {
		logger.Info("Commission is zero, nothing to record", "rate_bps", entry.RateBps)
		s.metrics.EventSkipped(metrics.SkipReasonZeroAmount)
		return nil
	}

	// 4. Record it
	if err := s.recorder.Record(ctx, entry); err != nil {
		if errors.Is(err, commission.ErrDuplicateEntry{}) {
			logger.Info("Commission entry recorded concurrently, skipping")
			s.metrics.EventSkipped(metrics.SkipReasonDuplicate)
			return nil
		}
		return fmt.Errorf("failed to record commission for event %s: %w", event.EventID, err)
	}

	s.metrics.EntryRecorded(string(entry.Direction))
	logger.Info("Commission entry recorded",
		"direction", string(entry.Direction),
		"amount", entry.Amount.StringFixed(2),
		"rate_bps", entry.RateBps,
	)
	return nil
}

// deriveEntry prices a settlement at the consultant's current rate and mirrors
// the outstanding settlement entry for an unsettlement. A nil entry with a nil
// error means the event was skipped.
func (s *DerivationServiceImpl) deriveEntry(ctx context.Context, event *shared.LedgerEvent, logger *slog.Logger) (*commission.Entry, error) {
	now := s.clock.Now().UTC()

	if event.Type == shared.LedgerEventPaymentUnsettled {
		settled, err := s.settlements.OutstandingSettlement(ctx, event.PaymentID)
		if err != nil {
			return nil, err
		}
		if settled == nil {
			logger.Info("No credited settlement to reverse, skipping")
			s.metrics.EventSkipped(metrics.SkipReasonNothingToReverse)
			return nil, nil
		}

		entry, err := commission.NewReversal(event, settled, now)
		if err != nil {
			s.metrics.EventSkipped(metrics.SkipReasonInvalidEvent)
			return nil, err
		}
		return entry, nil
	}

	rateBps, err := s.rateResolver.ResolveRate(ctx, event.ConsultantRef)
	if err != nil {
		if errors.Is(err, commission.ErrInvalidEvent) {
			s.metrics.EventSkipped(metrics.SkipReasonInvalidEvent)
		}
		return nil, err
	}

	entry, err := commission.NewEntry(event, rateBps, now)
	if err != nil {
		s.metrics.EventSkipped(metrics.SkipReasonInvalidEvent)
		return nil, err
	}
	return entry, nil
}
