package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/report"
	"github.com/google/uuid"
)

// ReportServiceImpl implements the ReportService interface
type ReportServiceImpl struct {
	payments     payment.Repository
	installments payment.InstallmentRepository
	reports      report.Repository
	directory    directory.Reader
	commissions  commission.Repository
	clock        clock.Clock
	logger       *slog.Logger
}

// ReportServiceDeps groups the read-side collaborators of the report service
type ReportServiceDeps struct {
	Payments     payment.Repository
	Installments payment.InstallmentRepository
	Reports      report.Repository
	Directory    directory.Reader
	Commissions  commission.Repository
	Clock        clock.Clock
}

// NewReportService creates a new report service
func NewReportService(logger *slog.Logger, deps ReportServiceDeps) ReportService {
	return &ReportServiceImpl{
		payments:     deps.Payments,
		installments: deps.Installments,
		reports:      deps.Reports,
		directory:    deps.Directory,
		commissions:  deps.Commissions,
		clock:        deps.Clock,
		logger:       logger.With("component", "report_service"),
	}
}

// optional turns a missing directory record into a nil result
func optional[T any](record *T, err error) (*T, error) {
	if errors.Is(err, directory.ErrReferenceNotFound{}) {
		return nil, nil
	}
	return record, err
}

// Receipt renders a payment with its schedule. Directory records that no longer
// exist leave their names blank instead of failing the receipt.
func (s *ReportServiceImpl) Receipt(ctx context.Context, paymentID uuid.UUID) (*report.Receipt, error) {
	p, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, persistenceFailure("get payment", err)
	}
	installments, err := s.installments.ListByPayment(ctx, paymentID)
	if err != nil {
		return nil, persistenceFailure("list installments", err)
	}
	p.Installments = installments

	var parties report.Parties
	if parties.Client, err = optional(s.directory.GetClient(ctx, p.ClientRef)); err != nil {
		return nil, persistenceFailure("resolve client", err)
	}
	if parties.Consultant, err = optional(s.directory.GetConsultant(ctx, p.ConsultantRef)); err != nil {
		return nil, persistenceFailure("resolve consultant", err)
	}
	if parties.Service, err = optional(s.directory.GetService(ctx, p.ServiceRef)); err != nil {
		return nil, persistenceFailure("resolve service", err)
	}
	if parties.PaymentMethod, err = optional(s.directory.GetPaymentMethod(ctx, p.PaymentMethodRef)); err != nil {
		return nil, persistenceFailure("resolve payment method", err)
	}

	return report.NewReceipt(p, parties, clock.Today(s.clock)), nil
}

// DailyCash builds the cash-register report for date; a zero date means today
func (s *ReportServiceImpl) DailyCash(ctx context.Context, date time.Time) (*report.DailyCash, error) {
	if date.IsZero() {
		date = clock.Today(s.clock)
	}

	daily, err := s.reports.DailyCash(ctx, clock.DateOf(date))
	if err != nil {
		s.logger.Error("Failed to build daily cash report", "date", date.Format(time.DateOnly), "error", err)
		return nil, persistenceFailure("daily cash report", err)
	}
	return daily, nil
}

// CommissionExtract lists the consultant's commission entries effective within [from, to]
func (s *ReportServiceImpl) CommissionExtract(ctx context.Context, consultantRef uuid.UUID, from, to time.Time) (*report.CommissionExtract, error) {
	var problems []string
	if consultantRef == uuid.Nil {
		problems = append(problems, "consultant_ref is required")
	}
	if from.IsZero() || to.IsZero() {
		problems = append(problems, "from and to are required")
	} else if to.Before(from) {
		problems = append(problems, "to must not be before from")
	}
	if len(problems) > 0 {
		return nil, validationError(problems...)
	}

	consultant, err := s.directory.GetConsultant(ctx, consultantRef)
	if err != nil {
		return nil, persistenceFailure("resolve consultant", err)
	}

	entries, err := s.commissions.ListByConsultant(ctx, consultantRef, clock.DateOf(from), clock.DateOf(to))
	if err != nil {
		return nil, persistenceFailure("list commission entries", err)
	}

	return report.NewCommissionExtract(consultant, from, to, entries), nil
}
