package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/caixa-installment-ledger/internal/caixa_api/middleware"
	"github.com/caixa-installment-ledger/internal/caixa_api/service"
	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/report"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// envelope is Response with Data decoded into T
type envelope[T any] struct {
	Data          T          `json:"data"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CorrelationID string     `json:"correlation_id,omitempty"`
	Meta          *MetaInfo  `json:"meta,omitempty"`
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, in service.CreatePaymentInput) (*payment.Payment, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentService) ListPayments(ctx context.Context, filter payment.Filter, page, perPage int) ([]*payment.Payment, int64, error) {
	args := m.Called(ctx, filter, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*payment.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *MockPaymentService) DeletePayment(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) MarkPaid(ctx context.Context, id uuid.UUID, paidDate time.Time) (*service.SettlementResult, error) {
	args := m.Called(ctx, id, paidDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SettlementResult), args.Error(1)
}

func (m *MockSettlementService) RevertSettlement(ctx context.Context, id uuid.UUID, reason string) (*payment.Installment, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Installment), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) Receipt(ctx context.Context, id uuid.UUID) (*report.Receipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Receipt), args.Error(1)
}

func (m *MockReportService) DailyCash(ctx context.Context, date time.Time) (*report.DailyCash, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.DailyCash), args.Error(1)
}

func (m *MockReportService) CommissionExtract(ctx context.Context, consultantRef uuid.UUID, from, to time.Time) (*report.CommissionExtract, error) {
	args := m.Called(ctx, consultantRef, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.CommissionExtract), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClock() *clock.FakeClock {
	return clock.NewFakeClock(time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))
}

func civilDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.CorrelationID())
	return router
}

func doRequest(router *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

func samplePayment(t *testing.T, total string, count int) *payment.Payment {
	t.Helper()
	p, err := payment.NewPayment(payment.Draft{
		ClientRef:        uuid.New(),
		ConsultantRef:    uuid.New(),
		ServiceRef:       uuid.New(),
		PaymentMethodRef: uuid.New(),
		TransactionType:  "credit",
		TotalAmount:      decimal.RequireFromString(total),
		InstallmentCount: count,
		TransactionDate:  civilDate(2024, time.January, 10),
	}, time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return p
}
