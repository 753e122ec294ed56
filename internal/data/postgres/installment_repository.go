package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const installmentColumns = `id, payment_id, sequence_number, amount_cents, due_date, paid_date, status, version, created_at, updated_at`

var installmentCopyColumns = []string{
	"id", "payment_id", "sequence_number", "amount_cents", "due_date",
	"paid_date", "status", "version", "created_at", "updated_at",
}

// InstallmentRepository implements the payment.InstallmentRepository interface for PostgreSQL
type InstallmentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewInstallmentRepository creates a new PostgreSQL installment repository
func NewInstallmentRepository(logger *slog.Logger, querier persistence.Querier) payment.InstallmentRepository {
	return &InstallmentRepository{
		querier: querier,
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *InstallmentRepository) WithTx(tx pgx.Tx) payment.InstallmentRepository {
	return &InstallmentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateAll writes every installment with a single COPY. Either all rows land or the
// statement fails; the caller's transaction decides whether they become visible.
func (r *InstallmentRepository) CreateAll(ctx context.Context, paymentID uuid.UUID, installments []*payment.Installment) error {
	if len(installments) == 0 {
		return fmt.Errorf("failed to create installments: payment %s has no installments", paymentID)
	}

	source := pgx.CopyFromSlice(len(installments), func(i int) ([]any, error) {
		inst := installments[i]
		if inst.PaymentID != paymentID {
			return nil, fmt.Errorf("installment %d belongs to payment %s", inst.SequenceNumber, inst.PaymentID)
		}
		return []any{
			inst.ID,
			inst.PaymentID,
			inst.SequenceNumber,
			payment.ToMinorUnits(inst.Amount),
			inst.DueDate,
			nullableDate(inst.PaidDate),
			string(inst.Status),
			inst.Version,
			inst.CreatedAt,
			inst.UpdatedAt,
		}, nil
	})

	copied, err := r.querier.CopyFrom(ctx, pgx.Identifier{"installments"}, installmentCopyColumns, source)
	if err != nil {
		r.logger.Error("Failed to create installments", "payment_id", paymentID.String(), "error", err)
		return fmt.Errorf("failed to create installments: %w", err)
	}
	if copied != int64(len(installments)) {
		r.logger.Error("Installment copy was incomplete",
			"payment_id", paymentID.String(),
			"expected", len(installments),
			"copied", copied,
		)
		return fmt.Errorf("failed to create installments: copied %d of %d rows", copied, len(installments))
	}

	return nil
}

// ListByPayment returns the payment's installments ordered by sequence number
func (r *InstallmentRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*payment.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE payment_id = $1
		ORDER BY sequence_number ASC
	`

	rows, err := r.querier.Query(ctx, query, paymentID)
	if err != nil {
		r.logger.Error("Failed to list installments", "payment_id", paymentID.String(), "error", err)
		return nil, fmt.Errorf("failed to list installments: %w", err)
	}
	defer rows.Close()

	installments := make([]*payment.Installment, 0)
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			r.logger.Error("Failed to scan installment", "error", err)
			return nil, fmt.Errorf("failed to scan installment: %w", err)
		}
		installments = append(installments, inst)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over installments", "error", err)
		return nil, fmt.Errorf("error iterating over installments: %w", err)
	}

	return installments, nil
}

// Get retrieves a single installment
func (r *InstallmentRepository) Get(ctx context.Context, id uuid.UUID) (*payment.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = $1`

	inst, err := scanInstallment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrInstallmentNotFound{InstallmentID: id}
		}
		r.logger.Error("Failed to get installment", "installment_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get installment: %w", err)
	}

	return inst, nil
}

// LockForUpdate obtains a row lock on the installment and returns its current state
func (r *InstallmentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*payment.Installment, error) {
	query := `SELECT ` + installmentColumns + ` FROM installments WHERE id = $1 FOR UPDATE`

	inst, err := scanInstallment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrInstallmentNotFound{InstallmentID: id}
		}
		r.logger.Error("Failed to lock installment for update", "installment_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock installment for update: %w", err)
	}

	return inst, nil
}

// UpdateStatus changes the settlement state if the row still has the given version.
// Returns ErrConcurrentModification if the installment was modified since it was read.
func (r *InstallmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payment.InstallmentStatus, paidDate *time.Time, version int) error {
	query := `
		UPDATE installments
		SET status = $1, paid_date = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4
	`

	result, err := r.querier.Exec(ctx, query, string(status), nullableDate(paidDate), id, version)
	if err != nil {
		r.logger.Error("Failed to update installment status",
			"installment_id", id.String(),
			"status", string(status),
			"error", err,
		)
		return fmt.Errorf("failed to update installment status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return payment.ErrConcurrentModification{InstallmentID: id}
	}

	return nil
}

// CountPending counts the payment's installments not yet paid
func (r *InstallmentRepository) CountPending(ctx context.Context, paymentID uuid.UUID) (int, error) {
	query := `SELECT COUNT(*) FROM installments WHERE payment_id = $1 AND status = $2`

	var count int
	if err := r.querier.QueryRow(ctx, query, paymentID, string(payment.InstallmentStatusPending)).Scan(&count); err != nil {
		r.logger.Error("Failed to count pending installments", "payment_id", paymentID.String(), "error", err)
		return 0, fmt.Errorf("failed to count pending installments: %w", err)
	}

	return count, nil
}

func scanInstallment(row pgx.Row) (*payment.Installment, error) {
	var (
		inst        payment.Installment
		amountCents int64
		dueDate     pgtype.Date
		paidDate    pgtype.Date
		status      string
	)
	err := row.Scan(
		&inst.ID,
		&inst.PaymentID,
		&inst.SequenceNumber,
		&amountCents,
		&dueDate,
		&paidDate,
		&status,
		&inst.Version,
		&inst.CreatedAt,
		&inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inst.Amount = payment.FromMinorUnits(amountCents)
	inst.DueDate = civil(dueDate.Time)
	inst.PaidDate = dateValue(paidDate)
	inst.Status = payment.InstallmentStatus(status)
	return &inst, nil
}
