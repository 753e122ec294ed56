package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/domain/outbox"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SettlementServiceImpl implements the SettlementService interface
type SettlementServiceImpl struct {
	db           persistence.TxBeginner
	payments     payment.Repository
	installments payment.InstallmentRepository
	outbox       outbox.Repository
	clock        clock.Clock
	metrics      *metrics.Ledger
	logger       *slog.Logger
}

// NewSettlementService creates a new settlement service
func NewSettlementService(logger *slog.Logger, deps PaymentServiceDeps) SettlementService {
	return &SettlementServiceImpl{
		db:           deps.DB,
		payments:     deps.Payments,
		installments: deps.Installments,
		outbox:       deps.Outbox,
		clock:        deps.Clock,
		metrics:      deps.Metrics,
		logger:       logger.With("component", "settlement_service"),
	}
}

// lockInstallment locks the parent payment first, then the installment. Every settlement
// path takes the locks in this order so two requests on one payment cannot deadlock.
func (s *SettlementServiceImpl) lockInstallment(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*payment.Payment, *payment.Installment, error) {
	installments := s.installments.WithTx(tx)

	current, err := installments.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.payments.WithTx(tx).LockForUpdate(ctx, current.PaymentID)
	if err != nil {
		return nil, nil, err
	}
	inst, err := installments.LockForUpdate(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return p, inst, nil
}

// MarkPaid settles a pending installment. When it was the last pending one, a
// PAYMENT_SETTLED event effective on paidDate is written in the same transaction.
func (s *SettlementServiceImpl) MarkPaid(ctx context.Context, installmentID uuid.UUID, paidDate time.Time) (_ *SettlementResult, err error) {
	defer func() { s.metrics.Failure("mark_paid", err) }()

	today := clock.Today(s.clock)
	if paidDate.IsZero() {
		paidDate = today
	}
	paidDate = clock.DateOf(paidDate)
	if paidDate.After(today) {
		return nil, validationError("paid_date must not be in the future")
	}

	result := &SettlementResult{}
	err = persistence.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		p, inst, err := s.lockInstallment(ctx, tx, installmentID)
		if err != nil {
			return err
		}
		if inst.IsPaid() {
			result.Installment = inst
			result.AlreadyPaid = true
			return nil
		}
		if paidDate.Before(p.TransactionDate) {
			return validationError("paid_date must not be before the transaction date " + p.TransactionDate.Format(time.DateOnly))
		}

		installments := s.installments.WithTx(tx)
		if err := installments.UpdateStatus(ctx, inst.ID, payment.InstallmentStatusPaid, &paidDate, inst.Version); err != nil {
			return err
		}
		inst.Status = payment.InstallmentStatusPaid
		inst.PaidDate = &paidDate
		inst.Version++
		inst.UpdatedAt = s.clock.Now()
		result.Installment = inst

		pending, err := installments.CountPending(ctx, p.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return nil
		}

		result.PaymentSettled = true
		event := newLedgerEvent(ctx, shared.LedgerEventPaymentSettled, p, paidDate, "", s.clock.Now())
		return enqueue(ctx, s.outbox.WithTx(tx), event)
	})
	if err != nil {
		return nil, persistenceFailure("mark installment paid", err)
	}

	if result.AlreadyPaid {
		s.metrics.InstallmentSettled(metrics.SettlementOutcomeAlreadyPaid)
		s.logger.Info("Installment already paid, nothing to do", "installment_id", installmentID.String())
		return result, nil
	}

	s.metrics.InstallmentSettled(metrics.SettlementOutcomeSettled)
	s.logger.Info("Installment settled",
		"installment_id", installmentID.String(),
		"payment_id", result.Installment.PaymentID.String(),
		"paid_date", paidDate.Format(time.DateOnly),
		"payment_settled", result.PaymentSettled,
		"correlation_id", shared.CorrelationIDFromContext(ctx),
	)
	return result, nil
}

// RevertSettlement returns a paid installment to pending. Reverting the installment of a
// settled payment writes a PAYMENT_UNSETTLED event carrying reason.
func (s *SettlementServiceImpl) RevertSettlement(ctx context.Context, installmentID uuid.UUID, reason string) (_ *payment.Installment, err error) {
	defer func() { s.metrics.Failure("revert_settlement", err) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("reason is required")
	}

	var (
		reverted   *payment.Installment
		changed    bool
		wasSettled bool
	)
	err = persistence.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		p, inst, err := s.lockInstallment(ctx, tx, installmentID)
		if err != nil {
			return err
		}
		reverted = inst
		if !inst.IsPaid() {
			return nil
		}

		installments := s.installments.WithTx(tx)
		pending, err := installments.CountPending(ctx, p.ID)
		if err != nil {
			return err
		}
		wasSettled = pending == 0

		if err := installments.UpdateStatus(ctx, inst.ID, payment.InstallmentStatusPending, nil, inst.Version); err != nil {
			return err
		}
		inst.Status = payment.InstallmentStatusPending
		inst.PaidDate = nil
		inst.Version++
		inst.UpdatedAt = s.clock.Now()
		changed = true

		if !wasSettled {
			return nil
		}
		now := s.clock.Now()
		event := newLedgerEvent(ctx, shared.LedgerEventPaymentUnsettled, p, clock.DateOf(now), reason, now)
		return enqueue(ctx, s.outbox.WithTx(tx), event)
	})
	if err != nil {
		return nil, persistenceFailure("revert settlement", err)
	}

	if !changed {
		s.logger.Info("Installment already pending, nothing to revert", "installment_id", installmentID.String())
		return reverted, nil
	}

	s.metrics.SettlementReverted()
	s.logger.Warn("Installment settlement reverted",
		"installment_id", installmentID.String(),
		"payment_id", reverted.PaymentID.String(),
		"reason", reason,
		"payment_was_settled", wasSettled,
		"correlation_id", shared.CorrelationIDFromContext(ctx),
	)
	return reverted, nil
}
