package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/outbox"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/report"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListByDateRange(ctx context.Context, filter payment.Filter, limit, offset int) ([]*payment.Payment, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) CountByDateRange(ctx context.Context, filter payment.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPaymentRepository) WithTx(pgx.Tx) payment.Repository {
	return m
}

type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) CreateAll(ctx context.Context, paymentID uuid.UUID, installments []*payment.Installment) error {
	args := m.Called(ctx, paymentID, installments)
	return args.Error(0)
}

func (m *MockInstallmentRepository) ListByPayment(ctx context.Context, paymentID uuid.UUID) ([]*payment.Installment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) Get(ctx context.Context, id uuid.UUID) (*payment.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*payment.Installment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status payment.InstallmentStatus, paidDate *time.Time, version int) error {
	args := m.Called(ctx, id, status, paidDate, version)
	return args.Error(0)
}

func (m *MockInstallmentRepository) CountPending(ctx context.Context, paymentID uuid.UUID) (int, error) {
	args := m.Called(ctx, paymentID)
	return args.Int(0), args.Error(1)
}

func (m *MockInstallmentRepository) WithTx(pgx.Tx) payment.InstallmentRepository {
	return m
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(pgx.Tx) outbox.Repository {
	return m
}

// enqueued returns the ledger events written to the outbox, in order
func (m *MockOutboxRepository) enqueued(t *testing.T) []*shared.LedgerEvent {
	t.Helper()
	var events []*shared.LedgerEvent
	for _, call := range m.Calls {
		if call.Method != "Create" {
			continue
		}
		event, err := call.Arguments.Get(1).(*outbox.Message).GetLedgerEvent()
		require.NoError(t, err)
		events = append(events, event)
	}
	return events
}

// fakeDirectory serves directory records from maps; a missing key is not found
type fakeDirectory struct {
	clients     map[uuid.UUID]*directory.Client
	consultants map[uuid.UUID]*directory.Consultant
	services    map[uuid.UUID]*directory.Service
	methods     map[uuid.UUID]*directory.PaymentMethod
	err         error
}

func lookup[T any](records map[uuid.UUID]*T, kind directory.Kind, id uuid.UUID, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	record, ok := records[id]
	if !ok {
		return nil, directory.ErrReferenceNotFound{Kind: kind, ID: id}
	}
	return record, nil
}

func (d *fakeDirectory) GetClient(_ context.Context, id uuid.UUID) (*directory.Client, error) {
	return lookup(d.clients, directory.KindClient, id, d.err)
}

func (d *fakeDirectory) GetConsultant(_ context.Context, id uuid.UUID) (*directory.Consultant, error) {
	return lookup(d.consultants, directory.KindConsultant, id, d.err)
}

func (d *fakeDirectory) GetService(_ context.Context, id uuid.UUID) (*directory.Service, error) {
	return lookup(d.services, directory.KindService, id, d.err)
}

func (d *fakeDirectory) GetPaymentMethod(_ context.Context, id uuid.UUID) (*directory.PaymentMethod, error) {
	return lookup(d.methods, directory.KindPaymentMethod, id, d.err)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) DailyCash(ctx context.Context, date time.Time) (*report.DailyCash, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DailyCash), args.Error(1)
}

type MockCommissionRepository struct {
	mock.Mock
}

func (m *MockCommissionRepository) Create(ctx context.Context, entry *commission.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCommissionRepository) GetByEventID(ctx context.Context, eventID uuid.UUID) (*commission.Entry, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Entry), args.Error(1)
}

func (m *MockCommissionRepository) LatestForPayment(ctx context.Context, paymentID uuid.UUID) (*commission.Entry, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commission.Entry), args.Error(1)
}

func (m *MockCommissionRepository) ListByConsultant(ctx context.Context, consultantRef uuid.UUID, from, to time.Time) ([]*commission.Entry, error) {
	args := m.Called(ctx, consultantRef, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*commission.Entry), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fixture wires the services over mocks. The pgxmock pool only sees the
// transaction boundary; every statement goes through the mocked repositories.
type fixture struct {
	db           pgxmock.PgxPoolIface
	payments     *MockPaymentRepository
	installments *MockInstallmentRepository
	outbox       *MockOutboxRepository
	directory    *fakeDirectory
	clock        *clock.FakeClock

	clientRef     uuid.UUID
	consultantRef uuid.UUID
	serviceRef    uuid.UUID
	cardRef       uuid.UUID
	cashRef       uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(db.Close)

	f := &fixture{
		db:            db,
		payments:      new(MockPaymentRepository),
		installments:  new(MockInstallmentRepository),
		outbox:        new(MockOutboxRepository),
		clock:         clock.NewFakeClock(time.Date(2024, time.March, 15, 14, 0, 0, 0, time.UTC)),
		clientRef:     uuid.New(),
		consultantRef: uuid.New(),
		serviceRef:    uuid.New(),
		cardRef:       uuid.New(),
		cashRef:       uuid.New(),
	}
	f.directory = &fakeDirectory{
		clients: map[uuid.UUID]*directory.Client{
			f.clientRef: {ID: f.clientRef, DisplayName: "Maria Souza", Active: true},
		},
		consultants: map[uuid.UUID]*directory.Consultant{
			f.consultantRef: {ID: f.consultantRef, DisplayName: "Ana Lima", CommissionRateBps: 1000, Active: true},
		},
		services: map[uuid.UUID]*directory.Service{
			f.serviceRef: {ID: f.serviceRef, Name: "Consulta", Active: true},
		},
		methods: map[uuid.UUID]*directory.PaymentMethod{
			f.cardRef: {ID: f.cardRef, Name: "cartao", AllowsInstallments: true, Active: true},
			f.cashRef: {ID: f.cashRef, Name: "dinheiro", AllowsInstallments: false, Active: true},
		},
	}
	return f
}

func (f *fixture) deps() PaymentServiceDeps {
	return PaymentServiceDeps{
		DB:              f.db,
		Payments:        f.payments,
		Installments:    f.installments,
		Outbox:          f.outbox,
		Directory:       f.directory,
		Clock:           f.clock,
		MaxInstallments: 360,
	}
}

func (f *fixture) draft(total string, count int) CreatePaymentInput {
	return CreatePaymentInput{
		ClientRef:        f.clientRef,
		ConsultantRef:    f.consultantRef,
		ServiceRef:       f.serviceRef,
		PaymentMethodRef: f.cardRef,
		TransactionType:  shared.TransactionTypeCredit,
		TotalAmount:      decimal.RequireFromString(total),
		InstallmentCount: count,
		TransactionDate:  date(2024, time.March, 15),
	}
}

func (f *fixture) assertExpectations(t *testing.T) {
	t.Helper()
	f.payments.AssertExpectations(t)
	f.installments.AssertExpectations(t)
	f.outbox.AssertExpectations(t)
	require.NoError(t, f.db.ExpectationsWereMet())
}
