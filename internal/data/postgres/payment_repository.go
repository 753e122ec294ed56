// Package postgres provides PostgreSQL implementations of the domain repositories.
// Amounts are stored as BIGINT cents and ledger dates as DATE columns.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, client_id, consultant_id, service_id, payment_method_id, transaction_type,
		total_amount_cents, installment_count, transaction_date, notes, created_at, updated_at`

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, querier persistence.Querier) payment.Repository {
	return &PaymentRepository{
		querier: querier,
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores the payment row. Installments are written separately by the installment repository.
func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		p.ID,
		p.ClientRef,
		p.ConsultantRef,
		p.ServiceRef,
		p.PaymentMethodRef,
		string(p.TransactionType),
		payment.ToMinorUnits(p.TotalAmount),
		p.InstallmentCount,
		p.TransactionDate,
		nullableText(p.Notes),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create payment", "payment_id", p.ID.String(), "error", err)
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByID retrieves a payment without its installments
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	p, err := scanPayment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to get payment", "payment_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return p, nil
}

// LockForUpdate obtains a row lock on the payment for the rest of the transaction.
// Settlement of any of its installments serialises on this lock.
func (r *PaymentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`

	p, err := scanPayment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound{PaymentID: id}
		}
		r.logger.Error("Failed to lock payment for update", "payment_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock payment for update: %w", err)
	}

	return p, nil
}

// Delete removes the payment; its installments go with it through ON DELETE CASCADE
func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete payment", "payment_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete payment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return payment.ErrPaymentNotFound{PaymentID: id}
	}

	return nil
}

// ListByDateRange returns payments recorded within the filter's dates, newest first.
// Installments are not attached; AllPaid carries their settlement state.
func (r *PaymentRepository) ListByDateRange(ctx context.Context, filter payment.Filter, limit, offset int) ([]*payment.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `,
			NOT EXISTS (
				SELECT 1 FROM installments i
				WHERE i.payment_id = payments.id AND i.status = 'pending'
			) AS all_paid
		FROM payments
		WHERE transaction_date BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR client_id = $3)
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT $4 OFFSET $5
	`

	rows, err := r.querier.Query(ctx, query, filter.From, filter.To, nullableUUID(filter.ClientRef), limit, offset)
	if err != nil {
		r.logger.Error("Failed to list payments", "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*payment.Payment, 0)
	for rows.Next() {
		var allPaid bool
		p, err := scanPayment(rows, &allPaid)
		if err != nil {
			r.logger.Error("Failed to scan payment", "error", err)
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		p.AllPaid = allPaid
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over payments", "error", err)
		return nil, fmt.Errorf("error iterating over payments: %w", err)
	}

	return payments, nil
}

// CountByDateRange counts the payments ListByDateRange pages through
func (r *PaymentRepository) CountByDateRange(ctx context.Context, filter payment.Filter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM payments
		WHERE transaction_date BETWEEN $1 AND $2
		  AND ($3::uuid IS NULL OR client_id = $3)
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, filter.From, filter.To, nullableUUID(filter.ClientRef)).Scan(&count); err != nil {
		r.logger.Error("Failed to count payments", "error", err)
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}

	return count, nil
}

// scanPayment reads paymentColumns, then any extra columns into extra
func scanPayment(row pgx.Row, extra ...any) (*payment.Payment, error) {
	var (
		p               payment.Payment
		transactionType string
		totalCents      int64
		transactionDate pgtype.Date
		notes           pgtype.Text
	)
	dest := []any{
		&p.ID,
		&p.ClientRef,
		&p.ConsultantRef,
		&p.ServiceRef,
		&p.PaymentMethodRef,
		&transactionType,
		&totalCents,
		&p.InstallmentCount,
		&transactionDate,
		&notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	p.TransactionType = shared.TransactionType(transactionType)
	p.TotalAmount = payment.FromMinorUnits(totalCents)
	p.TransactionDate = civil(transactionDate.Time)
	p.Notes = notes.String
	return &p, nil
}
