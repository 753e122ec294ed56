package service

import (
	"context"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/report"
	"github.com/google/uuid"
)

// CreatePaymentInput carries everything a new payment needs. The service keeps no
// state between calls; every request brings its own input.
type CreatePaymentInput = payment.Draft

// SettlementResult describes the outcome of a settlement request
type SettlementResult struct {
	Installment *payment.Installment
	// AlreadyPaid is set when the installment was paid before this call; nothing changed.
	AlreadyPaid bool
	// PaymentSettled is set when this call paid the last pending installment.
	PaymentSettled bool
}

// PaymentService defines the interface for recording and administering payments
type PaymentService interface {
	// CreatePayment splits the total into installments and writes everything in one transaction.
	// Returns ValidationError, ConsistencyViolation or PersistenceFailure.
	CreatePayment(ctx context.Context, in CreatePaymentInput) (*payment.Payment, error)

	// GetPayment returns the payment with its installments ordered by sequence number.
	// Returns ErrPaymentNotFound if the payment doesn't exist.
	GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error)

	// ListPayments returns a page of payments and the total count matching filter
	ListPayments(ctx context.Context, filter payment.Filter, page, perPage int) ([]*payment.Payment, int64, error)

	// DeletePayment removes a payment and its installments. Administrative.
	DeletePayment(ctx context.Context, id uuid.UUID) error
}

// SettlementService defines the interface for installment status transitions
type SettlementService interface {
	// MarkPaid settles an installment. A zero paidDate means today.
	// Settling an already paid installment is a no-op that reports AlreadyPaid.
	MarkPaid(ctx context.Context, installmentID uuid.UUID, paidDate time.Time) (*SettlementResult, error)

	// RevertSettlement returns a paid installment to pending. Administrative; reason is required.
	RevertSettlement(ctx context.Context, installmentID uuid.UUID, reason string) (*payment.Installment, error)
}

// ReportService defines the read models built on top of the ledger
type ReportService interface {
	Receipt(ctx context.Context, paymentID uuid.UUID) (*report.Receipt, error)
	DailyCash(ctx context.Context, date time.Time) (*report.DailyCash, error)
	CommissionExtract(ctx context.Context, consultantRef uuid.UUID, from, to time.Time) (*report.CommissionExtract, error)
}
