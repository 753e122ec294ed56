package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// DirectoryRepository implements directory.Reader over the registry tables
// maintained by the back-office screens
type DirectoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewDirectoryRepository(logger *slog.Logger, querier persistence.Querier) directory.Reader {
	return &DirectoryRepository{
		querier: querier,
		logger:  logger,
	}
}

func (r *DirectoryRepository) GetClient(ctx context.Context, id uuid.UUID) (*directory.Client, error) {
	query := `SELECT id, display_name, active FROM clients WHERE id = $1`

	var c directory.Client
	err := r.querier.QueryRow(ctx, query, id).Scan(&c.ID, &c.DisplayName, &c.Active)
	if err != nil {
		return nil, r.lookupError(directory.KindClient, id, err)
	}
	return &c, nil
}

func (r *DirectoryRepository) GetConsultant(ctx context.Context, id uuid.UUID) (*directory.Consultant, error) {
	query := `SELECT id, display_name, commission_rate_bps, active FROM consultants WHERE id = $1`

	var c directory.Consultant
	err := r.querier.QueryRow(ctx, query, id).Scan(&c.ID, &c.DisplayName, &c.CommissionRateBps, &c.Active)
	if err != nil {
		return nil, r.lookupError(directory.KindConsultant, id, err)
	}
	return &c, nil
}

func (r *DirectoryRepository) GetService(ctx context.Context, id uuid.UUID) (*directory.Service, error) {
	query := `SELECT id, name, base_price_cents, active FROM services WHERE id = $1`

	var (
		s          directory.Service
		priceCents int64
	)
	err := r.querier.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &priceCents, &s.Active)
	if err != nil {
		return nil, r.lookupError(directory.KindService, id, err)
	}
	s.BasePrice = payment.FromMinorUnits(priceCents)
	return &s, nil
}

func (r *DirectoryRepository) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*directory.PaymentMethod, error) {
	query := `SELECT id, name, allows_installments, active FROM payment_methods WHERE id = $1`

	var m directory.PaymentMethod
	err := r.querier.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.AllowsInstallments, &m.Active)
	if err != nil {
		return nil, r.lookupError(directory.KindPaymentMethod, id, err)
	}
	return &m, nil
}

func (r *DirectoryRepository) lookupError(kind directory.Kind, id uuid.UUID, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return directory.ErrReferenceNotFound{Kind: kind, ID: id}
	}
	r.logger.Error("Failed to look up directory entry", "kind", string(kind), "id", id.String(), "error", err)
	return fmt.Errorf("failed to get %s: %w", kind, err)
}
