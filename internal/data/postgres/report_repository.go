package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/report"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
)

// dailyCashQuery aggregates one day in a single snapshot: payments recorded on $1,
// installments collected on $1, and installments still pending that fell due before $1.
const dailyCashQuery = `
	WITH recorded AS (
		SELECT
			COUNT(*) FILTER (WHERE transaction_type = 'credit') AS credit_count,
			COALESCE(SUM(total_amount_cents) FILTER (WHERE transaction_type = 'credit'), 0)::bigint AS credit_cents,
			COUNT(*) FILTER (WHERE transaction_type = 'debit') AS debit_count,
			COALESCE(SUM(total_amount_cents) FILTER (WHERE transaction_type = 'debit'), 0)::bigint AS debit_cents
		FROM payments
		WHERE transaction_date = $1
	),
	collected AS (
		SELECT
			COUNT(*) FILTER (WHERE p.transaction_type = 'credit') AS credit_count,
			COALESCE(SUM(i.amount_cents) FILTER (WHERE p.transaction_type = 'credit'), 0)::bigint AS credit_cents,
			COUNT(*) FILTER (WHERE p.transaction_type = 'debit') AS debit_count,
			COALESCE(SUM(i.amount_cents) FILTER (WHERE p.transaction_type = 'debit'), 0)::bigint AS debit_cents
		FROM installments i
		JOIN payments p ON p.id = i.payment_id
		WHERE i.status = 'paid' AND i.paid_date = $1
	),
	overdue AS (
		SELECT
			COUNT(*) FILTER (WHERE p.transaction_type = 'credit') AS credit_count,
			COALESCE(SUM(i.amount_cents) FILTER (WHERE p.transaction_type = 'credit'), 0)::bigint AS credit_cents,
			COUNT(*) FILTER (WHERE p.transaction_type = 'debit') AS debit_count,
			COALESCE(SUM(i.amount_cents) FILTER (WHERE p.transaction_type = 'debit'), 0)::bigint AS debit_cents
		FROM installments i
		JOIN payments p ON p.id = i.payment_id
		WHERE i.status = 'pending' AND i.due_date < $1
	)
	SELECT
		recorded.credit_count, recorded.credit_cents, recorded.debit_count, recorded.debit_cents,
		collected.credit_count, collected.credit_cents, collected.debit_count, collected.debit_cents,
		overdue.credit_count, overdue.credit_cents, overdue.debit_count, overdue.debit_cents
	FROM recorded, collected, overdue
`

// ReportRepository implements report.Repository for PostgreSQL
type ReportRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewReportRepository(logger *slog.Logger, querier persistence.Querier) report.Repository {
	return &ReportRepository{
		querier: querier,
		logger:  logger,
	}
}

// DailyCash builds the cash-register figures for date
func (r *ReportRepository) DailyCash(ctx context.Context, date time.Time) (*report.DailyCash, error) {
	var cells [12]int64
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}

	if err := r.querier.QueryRow(ctx, dailyCashQuery, date).Scan(dest...); err != nil {
		r.logger.Error("Failed to aggregate daily cash", "date", date.Format(time.DateOnly), "error", err)
		return nil, fmt.Errorf("failed to aggregate daily cash: %w", err)
	}

	byType := func(c []int64) report.ByType {
		return report.ByType{
			Credit: report.Figure{Count: c[0], Amount: payment.FromMinorUnits(c[1])},
			Debit:  report.Figure{Count: c[2], Amount: payment.FromMinorUnits(c[3])},
		}
	}

	d := &report.DailyCash{
		Date:      date,
		Recorded:  byType(cells[0:4]),
		Collected: byType(cells[4:8]),
		Overdue:   byType(cells[8:12]),
	}
	d.ComputeBalance()
	return d, nil
}
