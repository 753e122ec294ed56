package components

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockCommissionRepo struct {
	mock.Mock
}

func (m *MockCommissionRepo) Create(ctx context.Context, entry *commission.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCommissionRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*commission.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Entry), args.Error(1)
}

func (m *MockCommissionRepo) LatestForPayment(ctx context.Context, paymentID uuid.UUID) (*commission.Entry, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Entry), args.Error(1)
}

func (m *MockCommissionRepo) ListByConsultant(ctx context.Context, consultantRef uuid.UUID, from, to time.Time) ([]*commission.Entry, error) {
	args := m.Called(ctx, consultantRef, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*commission.Entry), args.Error(1)
}

// MockDirectory only answers consultant lookups; the processor never asks for anything else
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetConsultant(ctx context.Context, id uuid.UUID) (*directory.Consultant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.Consultant), args.Error(1)
}

func (m *MockDirectory) GetClient(context.Context, uuid.UUID) (*directory.Client, error) {
	panic("unexpected GetClient")
}

func (m *MockDirectory) GetService(context.Context, uuid.UUID) (*directory.Service, error) {
	panic("unexpected GetService")
}

func (m *MockDirectory) GetPaymentMethod(context.Context, uuid.UUID) (*directory.PaymentMethod, error) {
	panic("unexpected GetPaymentMethod")
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validEvent() *shared.LedgerEvent {
	return &shared.LedgerEvent{
		EventID:         uuid.New(),
		Type:            shared.LedgerEventPaymentSettled,
		PaymentID:       uuid.New(),
		ClientRef:       uuid.New(),
		ConsultantRef:   uuid.New(),
		ServiceRef:      uuid.New(),
		TransactionType: shared.TransactionTypeCredit,
		TotalAmount:     decimal.RequireFromString("120.00"),
		EffectiveDate:   time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC),
		CorrelationID:   "corr-components",
	}
}
