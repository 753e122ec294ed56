package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filter selects payments by transaction date, inclusive on both ends
type Filter struct {
	From      time.Time
	To        time.Time
	ClientRef uuid.UUID // uuid.Nil selects every client
}

// Repository defines payment persistence operations
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// LockForUpdate acquires a pessimistic lock serialising settlement of the payment
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Payment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDateRange(ctx context.Context, filter Filter, limit, offset int) ([]*Payment, error)
	CountByDateRange(ctx context.Context, filter Filter) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// InstallmentRepository is the persistence boundary for installments, keyed by payment
type InstallmentRepository interface {
	// CreateAll writes every installment of a payment in one statement
	CreateAll(ctx context.Context, paymentID uuid.UUID, installments []*Installment) error
	ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*Installment, error)
	Get(ctx context.Context, id uuid.UUID) (*Installment, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Installment, error)

	// UpdateStatus uses optimistic locking on version
	UpdateStatus(ctx context.Context, id uuid.UUID, status InstallmentStatus, paidDate *time.Time, version int) error
	CountPending(ctx context.Context, paymentID uuid.UUID) (int, error)
	WithTx(tx pgx.Tx) InstallmentRepository
}
