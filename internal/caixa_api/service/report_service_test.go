package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/report"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportFixture struct {
	*fixture
	reports     *MockReportRepository
	commissions *MockCommissionRepository
	service     ReportService
}

func newReportFixture(t *testing.T) *reportFixture {
	f := &reportFixture{
		fixture:     newFixture(t),
		reports:     new(MockReportRepository),
		commissions: new(MockCommissionRepository),
	}
	f.service = NewReportService(newTestLogger(), ReportServiceDeps{
		Payments:     f.payments,
		Installments: f.installments,
		Reports:      f.reports,
		Directory:    f.directory,
		Commissions:  f.commissions,
		Clock:        f.clock,
	})
	return f
}

func TestReportServiceImpl_Receipt(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newReportFixture(t)
		draft := f.draft("300.00", 3)
		draft.TransactionDate = date(2024, time.January, 10)
		p, err := payment.NewPayment(draft, f.clock.Now())
		require.NoError(t, err)

		f.payments.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.installments.On("ListByPayment", ctx, p.ID).Return(p.Installments, nil).Once()

		receipt, err := f.service.Receipt(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, "Maria Souza", receipt.ClientName)
		assert.Equal(t, "Ana Lima", receipt.ConsultantName)
		assert.Equal(t, "Consulta", receipt.ServiceName)
		assert.Equal(t, "cartao", receipt.PaymentMethodName)
		assert.Equal(t, "100.00", receipt.PaidTotal.StringFixed(2))
		assert.Equal(t, "200.00", receipt.OutstandingTotal.StringFixed(2))
		// due 2024-02-10 is overdue on 2024-03-15; 2024-03-10 as well
		assert.Equal(t, 2, receipt.OverdueCount)
		assert.Equal(t, date(2024, time.March, 15), receipt.AsOf)
		f.assertExpectations(t)
	})

	t.Run("Missing directory records leave names blank", func(t *testing.T) {
		f := newReportFixture(t)
		p, err := payment.NewPayment(f.draft("50.00", 1), f.clock.Now())
		require.NoError(t, err)
		delete(f.directory.consultants, f.consultantRef)
		delete(f.directory.services, f.serviceRef)

		f.payments.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.installments.On("ListByPayment", ctx, p.ID).Return(p.Installments, nil).Once()

		receipt, err := f.service.Receipt(ctx, p.ID)

		require.NoError(t, err)
		assert.Equal(t, "Maria Souza", receipt.ClientName)
		assert.Empty(t, receipt.ConsultantName)
		assert.Empty(t, receipt.ServiceName)
		f.assertExpectations(t)
	})

	t.Run("Directory unavailable", func(t *testing.T) {
		f := newReportFixture(t)
		p, err := payment.NewPayment(f.draft("50.00", 1), f.clock.Now())
		require.NoError(t, err)
		f.directory.err = errors.New("connection refused")

		f.payments.On("GetByID", ctx, p.ID).Return(p, nil).Once()
		f.installments.On("ListByPayment", ctx, p.ID).Return(p.Installments, nil).Once()

		_, err = f.service.Receipt(ctx, p.ID)

		var failure payment.PersistenceFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "resolve client", failure.Op)
		f.assertExpectations(t)
	})

	t.Run("Payment not found", func(t *testing.T) {
		f := newReportFixture(t)
		id := uuid.New()

		f.payments.On("GetByID", ctx, id).Return(nil, payment.ErrPaymentNotFound{PaymentID: id}).Once()

		_, err := f.service.Receipt(ctx, id)

		assert.ErrorIs(t, err, payment.ErrNotFound)
		f.assertExpectations(t)
	})
}

func TestReportServiceImpl_DailyCash(t *testing.T) {
	ctx := context.Background()

	t.Run("Zero date means today", func(t *testing.T) {
		f := newReportFixture(t)
		today := date(2024, time.March, 15)
		daily := &report.DailyCash{Date: today, Balance: decimal.RequireFromString("42.00")}

		f.reports.On("DailyCash", ctx, today).Return(daily, nil).Once()

		got, err := f.service.DailyCash(ctx, time.Time{})

		require.NoError(t, err)
		assert.Equal(t, "42.00", got.Balance.StringFixed(2))
		f.reports.AssertExpectations(t)
	})

	t.Run("Repository error", func(t *testing.T) {
		f := newReportFixture(t)
		day := date(2024, time.March, 1)

		f.reports.On("DailyCash", ctx, day).Return(nil, errors.New("statement timeout")).Once()

		_, err := f.service.DailyCash(ctx, day)

		var failure payment.PersistenceFailure
		require.ErrorAs(t, err, &failure)
		f.reports.AssertExpectations(t)
	})
}

func TestReportServiceImpl_CommissionExtract(t *testing.T) {
	ctx := context.Background()
	from := date(2024, time.March, 1)
	to := date(2024, time.March, 31)

	t.Run("Success", func(t *testing.T) {
		f := newReportFixture(t)
		entries := []*commission.Entry{
			{EventID: uuid.New(), ConsultantRef: f.consultantRef, Direction: shared.TransactionTypeCredit, Amount: decimal.RequireFromString("30.00")},
			{EventID: uuid.New(), ConsultantRef: f.consultantRef, Direction: shared.TransactionTypeDebit, Amount: decimal.RequireFromString("10.00")},
		}

		f.commissions.On("ListByConsultant", ctx, f.consultantRef, from, to).Return(entries, nil).Once()

		extract, err := f.service.CommissionExtract(ctx, f.consultantRef, from, to)

		require.NoError(t, err)
		assert.Equal(t, "Ana Lima", extract.ConsultantName)
		assert.Equal(t, "30.00", extract.Credits.StringFixed(2))
		assert.Equal(t, "10.00", extract.Debits.StringFixed(2))
		assert.Equal(t, "20.00", extract.Balance.StringFixed(2))
		f.commissions.AssertExpectations(t)
	})

	t.Run("Unknown consultant", func(t *testing.T) {
		f := newReportFixture(t)
		id := uuid.New()

		_, err := f.service.CommissionExtract(ctx, id, from, to)

		assert.ErrorIs(t, err, directory.ErrReferenceNotFound{Kind: directory.KindConsultant, ID: id})
		f.commissions.AssertExpectations(t)
	})

	t.Run("Invalid range", func(t *testing.T) {
		f := newReportFixture(t)

		_, err := f.service.CommissionExtract(ctx, uuid.Nil, to, from)

		var validation payment.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"consultant_ref is required", "to must not be before from"}, validation.Problems)
	})

	t.Run("Commission store unavailable", func(t *testing.T) {
		f := newReportFixture(t)

		f.commissions.On("ListByConsultant", ctx, f.consultantRef, from, to).Return(nil, errors.New("server selection timeout")).Once()

		_, err := f.service.CommissionExtract(ctx, f.consultantRef, from, to)

		var failure payment.PersistenceFailure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, "list commission entries", failure.Op)
		f.commissions.AssertExpectations(t)
	})
}
