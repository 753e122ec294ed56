package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/outbox"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const maxPerPage = 100

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	db              persistence.TxBeginner
	payments        payment.Repository
	installments    payment.InstallmentRepository
	outbox          outbox.Repository
	directory       directory.Reader
	clock           clock.Clock
	maxInstallments int
	metrics         *metrics.Ledger
	logger          *slog.Logger
}

// PaymentServiceDeps groups the collaborators of the payment and settlement services
type PaymentServiceDeps struct {
	DB              persistence.TxBeginner
	Payments        payment.Repository
	Installments    payment.InstallmentRepository
	Outbox          outbox.Repository
	Directory       directory.Reader
	Clock           clock.Clock
	MaxInstallments int
	Metrics         *metrics.Ledger
}

// NewPaymentService creates a new payment service
func NewPaymentService(logger *slog.Logger, deps PaymentServiceDeps) PaymentService {
	return &PaymentServiceImpl{
		db:              deps.DB,
		payments:        deps.Payments,
		installments:    deps.Installments,
		outbox:          deps.Outbox,
		directory:       deps.Directory,
		clock:           deps.Clock,
		maxInstallments: deps.MaxInstallments,
		metrics:         deps.Metrics,
		logger:          logger.With("component", "payment_service"),
	}
}

// CreatePayment validates the input, resolves its references and writes the payment,
// its installments and, when it is settled at creation, a PAYMENT_SETTLED event.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, in CreatePaymentInput) (_ *payment.Payment, err error) {
	defer func() { s.metrics.Failure("create_payment", err) }()

	if err := in.Validate(s.maxInstallments); err != nil {
		return nil, err
	}
	if err := s.resolveReferences(ctx, in); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p, err := payment.NewPayment(in, now)
	if err != nil {
		return nil, err
	}
	if err := p.CheckInvariants(); err != nil {
		s.logger.Error("Computed payment breaks ledger invariants", "payment_id", p.ID.String(), "error", err)
		return nil, err
	}

	var event *shared.LedgerEvent
	if p.IsSettled() {
		event = newLedgerEvent(ctx, shared.LedgerEventPaymentSettled, p, p.TransactionDate, "", now)
	}

	err = persistence.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.payments.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		if err := s.installments.WithTx(tx).CreateAll(ctx, p.ID, p.Installments); err != nil {
			return err
		}
		if event != nil {
			return enqueue(ctx, s.outbox.WithTx(tx), event)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record payment", "payment_id", p.ID.String(), "error", err)
		return nil, persistenceFailure("create payment", err)
	}

	s.metrics.PaymentCreated(string(p.TransactionType))
	s.logger.Info("Payment recorded",
		"payment_id", p.ID.String(),
		"transaction_type", string(p.TransactionType),
		"total_amount", p.TotalAmount.StringFixed(2),
		"installment_count", p.InstallmentCount,
		"correlation_id", shared.CorrelationIDFromContext(ctx),
	)
	return p, nil
}

// resolveReferences checks that every referenced directory record exists and is active
func (s *PaymentServiceImpl) resolveReferences(ctx context.Context, in CreatePaymentInput) error {
	var problems []string
	check := func(field string, err error, active func() bool) error {
		if err != nil {
			if errors.Is(err, directory.ErrReferenceNotFound{}) {
				problems = append(problems, field+" does not exist")
				return nil
			}
			return payment.PersistenceFailure{Op: "resolve " + field, Err: err}
		}
		if !active() {
			problems = append(problems, field+" is inactive")
		}
		return nil
	}

	client, err := s.directory.GetClient(ctx, in.ClientRef)
	if err := check("client_ref", err, func() bool { return client.Active }); err != nil {
		return err
	}
	consultant, err := s.directory.GetConsultant(ctx, in.ConsultantRef)
	if err := check("consultant_ref", err, func() bool { return consultant.Active }); err != nil {
		return err
	}
	svc, err := s.directory.GetService(ctx, in.ServiceRef)
	if err := check("service_ref", err, func() bool { return svc.Active }); err != nil {
		return err
	}
	method, err := s.directory.GetPaymentMethod(ctx, in.PaymentMethodRef)
	if err := check("payment_method_ref", err, func() bool { return method.Active }); err != nil {
		return err
	}
	if method != nil && in.InstallmentCount > 1 && !method.AllowsInstallments {
		problems = append(problems, fmt.Sprintf("payment_method_ref %s does not allow installments", method.Name))
	}

	if len(problems) > 0 {
		return validationError(problems...)
	}
	return nil
}

// GetPayment returns the payment with its installments attached
func (s *PaymentServiceImpl) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceFailure("get payment", err)
	}

	installments, err := s.installments.ListByPayment(ctx, id)
	if err != nil {
		return nil, persistenceFailure("list installments", err)
	}
	p.Installments = installments

	return p, nil
}

// ListPayments returns a page of payments ordered by transaction date, newest first
func (s *PaymentServiceImpl) ListPayments(ctx context.Context, filter payment.Filter, page, perPage int) ([]*payment.Payment, int64, error) {
	var problems []string
	if page < 1 {
		problems = append(problems, "page must be at least 1")
	}
	if perPage < 1 || perPage > maxPerPage {
		problems = append(problems, fmt.Sprintf("per_page must be between 1 and %d", maxPerPage))
	}
	if filter.From.IsZero() || filter.To.IsZero() {
		problems = append(problems, "from and to are required")
	} else if filter.To.Before(filter.From) {
		problems = append(problems, "to must not be before from")
	}
	if len(problems) > 0 {
		return nil, 0, validationError(problems...)
	}

	offset := (page - 1) * perPage
	payments, err := s.payments.ListByDateRange(ctx, filter, perPage, offset)
	if err != nil {
		return nil, 0, persistenceFailure("list payments", err)
	}

	total, err := s.payments.CountByDateRange(ctx, filter)
	if err != nil {
		return nil, 0, persistenceFailure("count payments", err)
	}

	return payments, total, nil
}

// DeletePayment removes a payment. A fully settled payment leaves a PAYMENT_UNSETTLED
// event behind so its commission is reversed.
func (s *PaymentServiceImpl) DeletePayment(ctx context.Context, id uuid.UUID) (err error) {
	defer func() { s.metrics.Failure("delete_payment", err) }()

	var wasSettled bool
	err = persistence.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		p, err := s.payments.WithTx(tx).LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		installments, err := s.installments.WithTx(tx).ListByPayment(ctx, id)
		if err != nil {
			return err
		}
		p.Installments = installments
		wasSettled = p.IsSettled()

		if err := s.payments.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		if wasSettled {
			now := s.clock.Now()
			event := newLedgerEvent(ctx, shared.LedgerEventPaymentUnsettled, p, clock.DateOf(now), "payment deleted", now)
			return enqueue(ctx, s.outbox.WithTx(tx), event)
		}
		return nil
	})
	if err != nil {
		return persistenceFailure("delete payment", err)
	}

	s.logger.Warn("Payment deleted",
		"payment_id", id.String(),
		"was_settled", wasSettled,
		"correlation_id", shared.CorrelationIDFromContext(ctx),
	)
	return nil
}
