package service

import (
	"context"

	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// DerivationService turns ledger events into commission entries.
type DerivationService interface {
	ProcessEvent(ctx context.Context, event *shared.LedgerEvent) error
}

// EventValidator validates ledger events before derivation
type EventValidator interface {
	Validate(ctx context.Context, event *shared.LedgerEvent) error
	CheckIdempotency(ctx context.Context, event *shared.LedgerEvent) (bool, error)
}

// RateResolver looks up the consultant's current commission rate in basis points
type RateResolver interface {
	ResolveRate(ctx context.Context, consultantRef uuid.UUID) (int, error)
}

// SettlementFinder finds the settlement entry an unsettle event reverses; nil means there is none
type SettlementFinder interface {
	OutstandingSettlement(ctx context.Context, paymentID uuid.UUID) (*commission.Entry, error)
}

// EntryRecorder persists derived commission entries
type EntryRecorder interface {
	Record(ctx context.Context, entry *commission.Entry) error
}
