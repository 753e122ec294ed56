package handler

import (
	"time"

	"github.com/caixa-installment-ledger/internal/caixa_api/service"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/report"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest represents a request to record a new payment.
// Amount and installment rules are checked by the service so every problem is reported at once.
type CreatePaymentRequest struct {
	ClientID         string          `json:"client_id" binding:"required,uuid"`
	ConsultantID     string          `json:"consultant_id" binding:"required,uuid"`
	ServiceID        string          `json:"service_id" binding:"required,uuid"`
	PaymentMethodID  string          `json:"payment_method_id" binding:"required,uuid"`
	TransactionType  string          `json:"transaction_type" binding:"required"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	InstallmentCount int             `json:"installment_count"`
	TransactionDate  string          `json:"transaction_date" binding:"required"`
	Notes            string          `json:"notes,omitempty"`
}

// SettleInstallmentRequest is the optional body of a settlement; an empty paid_date means today
type SettleInstallmentRequest struct {
	PaidDate string `json:"paid_date,omitempty"`
}

// RevertSettlementRequest represents an administrative settlement revert
type RevertSettlementRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListPaymentsQuery represents the filters of the payment listing
type ListPaymentsQuery struct {
	From     string `form:"from" binding:"required"`
	To       string `form:"to" binding:"required"`
	ClientID string `form:"client_id" binding:"omitempty,uuid"`
	Page     int    `form:"page,default=1"`
	PerPage  int    `form:"per_page,default=20"`
}

// DateRangeQuery represents a required inclusive date range
type DateRangeQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// InstallmentResponse represents an installment in API responses
type InstallmentResponse struct {
	ID             string `json:"id"`
	PaymentID      string `json:"payment_id"`
	SequenceNumber int    `json:"sequence_number"`
	Amount         string `json:"amount"`
	DueDate        string `json:"due_date"`
	PaidDate       string `json:"paid_date,omitempty"`
	Status         string `json:"status"`
	Version        int    `json:"version"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID               string                `json:"id"`
	ClientID         string                `json:"client_id"`
	ConsultantID     string                `json:"consultant_id"`
	ServiceID        string                `json:"service_id"`
	PaymentMethodID  string                `json:"payment_method_id"`
	TransactionType  string                `json:"transaction_type"`
	TotalAmount      string                `json:"total_amount"`
	InstallmentCount int                   `json:"installment_count"`
	TransactionDate  string                `json:"transaction_date"`
	Notes            string                `json:"notes,omitempty"`
	Settled          bool                  `json:"settled"`
	CreatedAt        string                `json:"created_at"`
	Installments     []InstallmentResponse `json:"installments,omitempty"`
}

// SettlementResponse represents the outcome of a settlement request
type SettlementResponse struct {
	Installment    InstallmentResponse `json:"installment"`
	AlreadyPaid    bool                `json:"already_paid"`
	PaymentSettled bool                `json:"payment_settled"`
}

type ReceiptLineResponse struct {
	InstallmentID  string `json:"installment_id"`
	SequenceNumber int    `json:"sequence_number"`
	Amount         string `json:"amount"`
	DueDate        string `json:"due_date"`
	PaidDate       string `json:"paid_date,omitempty"`
	Status         string `json:"status"`
}

// ReceiptResponse represents a payment receipt in API responses
type ReceiptResponse struct {
	PaymentID         string                `json:"payment_id"`
	TransactionType   string                `json:"transaction_type"`
	TransactionDate   string                `json:"transaction_date"`
	TotalAmount       string                `json:"total_amount"`
	InstallmentCount  int                   `json:"installment_count"`
	Notes             string                `json:"notes,omitempty"`
	ClientName        string                `json:"client_name"`
	ConsultantName    string                `json:"consultant_name"`
	ServiceName       string                `json:"service_name"`
	ServiceBasePrice  string                `json:"service_base_price"`
	PaymentMethodName string                `json:"payment_method_name"`
	Lines             []ReceiptLineResponse `json:"lines"`
	PaidTotal         string                `json:"paid_total"`
	OutstandingTotal  string                `json:"outstanding_total"`
	OverdueCount      int                   `json:"overdue_count"`
	NextDueDate       string                `json:"next_due_date,omitempty"`
	AsOf              string                `json:"as_of"`
}

type FigureResponse struct {
	Count  int64  `json:"count"`
	Amount string `json:"amount"`
}

type ByTypeResponse struct {
	Credit FigureResponse `json:"credit"`
	Debit  FigureResponse `json:"debit"`
}

// DailyCashResponse represents the cash-register report in API responses
type DailyCashResponse struct {
	Date      string         `json:"date"`
	Recorded  ByTypeResponse `json:"recorded"`
	Collected ByTypeResponse `json:"collected"`
	Overdue   ByTypeResponse `json:"overdue"`
	Balance   string         `json:"balance"`
}

type CommissionEntryResponse struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	PaymentID     string `json:"payment_id"`
	Direction     string `json:"direction"`
	BaseAmount    string `json:"base_amount"`
	RateBps       int    `json:"rate_bps"`
	Amount        string `json:"amount"`
	EffectiveDate string `json:"effective_date"`
	Reason        string `json:"reason,omitempty"`
}

// CommissionExtractResponse represents a consultant's commission extract in API responses
type CommissionExtractResponse struct {
	ConsultantID   string                    `json:"consultant_id"`
	ConsultantName string                    `json:"consultant_name"`
	From           string                    `json:"from"`
	To             string                    `json:"to"`
	Entries        []CommissionEntryResponse `json:"entries"`
	Credits        string                    `json:"credits"`
	Debits         string                    `json:"debits"`
	Balance        string                    `json:"balance"`
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func mapInstallmentToResponse(inst *payment.Installment, today time.Time) InstallmentResponse {
	return InstallmentResponse{
		ID:             inst.ID.String(),
		PaymentID:      inst.PaymentID.String(),
		SequenceNumber: inst.SequenceNumber,
		Amount:         formatAmount(inst.Amount),
		DueDate:        formatDate(inst.DueDate),
		PaidDate:       formatOptionalDate(inst.PaidDate),
		Status:         string(inst.DisplayStatus(today)),
		Version:        inst.Version,
	}
}

func mapPaymentToResponse(p *payment.Payment, today time.Time) PaymentResponse {
	response := PaymentResponse{
		ID:               p.ID.String(),
		ClientID:         p.ClientRef.String(),
		ConsultantID:     p.ConsultantRef.String(),
		ServiceID:        p.ServiceRef.String(),
		PaymentMethodID:  p.PaymentMethodRef.String(),
		TransactionType:  string(p.TransactionType),
		TotalAmount:      formatAmount(p.TotalAmount),
		InstallmentCount: p.InstallmentCount,
		TransactionDate:  formatDate(p.TransactionDate),
		Notes:            p.Notes,
		Settled:          p.IsSettled(),
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}

	for _, inst := range p.Installments {
		response.Installments = append(response.Installments, mapInstallmentToResponse(inst, today))
	}

	return response
}

func mapSettlementToResponse(result *service.SettlementResult, today time.Time) SettlementResponse {
	return SettlementResponse{
		Installment:    mapInstallmentToResponse(result.Installment, today),
		AlreadyPaid:    result.AlreadyPaid,
		PaymentSettled: result.PaymentSettled,
	}
}

func mapReceiptToResponse(r *report.Receipt) ReceiptResponse {
	response := ReceiptResponse{
		PaymentID:         r.PaymentID.String(),
		TransactionType:   string(r.TransactionType),
		TransactionDate:   formatDate(r.TransactionDate),
		TotalAmount:       formatAmount(r.TotalAmount),
		InstallmentCount:  r.InstallmentCount,
		Notes:             r.Notes,
		ClientName:        r.ClientName,
		ConsultantName:    r.ConsultantName,
		ServiceName:       r.ServiceName,
		ServiceBasePrice:  formatAmount(r.ServiceBasePrice),
		PaymentMethodName: r.PaymentMethodName,
		Lines:             make([]ReceiptLineResponse, 0, len(r.Lines)),
		PaidTotal:         formatAmount(r.PaidTotal),
		OutstandingTotal:  formatAmount(r.OutstandingTotal),
		OverdueCount:      r.OverdueCount,
		NextDueDate:       formatOptionalDate(r.NextDueDate),
		AsOf:              formatDate(r.AsOf),
	}

	for _, line := range r.Lines {
		response.Lines = append(response.Lines, ReceiptLineResponse{
			InstallmentID:  line.InstallmentID.String(),
			SequenceNumber: line.SequenceNumber,
			Amount:         formatAmount(line.Amount),
			DueDate:        formatDate(line.DueDate),
			PaidDate:       formatOptionalDate(line.PaidDate),
			Status:         string(line.Status),
		})
	}

	return response
}

func mapFigure(f report.Figure) FigureResponse {
	return FigureResponse{Count: f.Count, Amount: formatAmount(f.Amount)}
}

func mapByType(b report.ByType) ByTypeResponse {
	return ByTypeResponse{Credit: mapFigure(b.Credit), Debit: mapFigure(b.Debit)}
}

func mapDailyCashToResponse(d *report.DailyCash) DailyCashResponse {
	return DailyCashResponse{
		Date:      formatDate(d.Date),
		Recorded:  mapByType(d.Recorded),
		Collected: mapByType(d.Collected),
		Overdue:   mapByType(d.Overdue),
		Balance:   formatAmount(d.Balance),
	}
}

func mapCommissionEntry(e *commission.Entry) CommissionEntryResponse {
	return CommissionEntryResponse{
		EventID:       e.EventID.String(),
		EventType:     string(e.EventType),
		PaymentID:     e.PaymentID.String(),
		Direction:     string(e.Direction),
		BaseAmount:    formatAmount(e.BaseAmount),
		RateBps:       e.RateBps,
		Amount:        formatAmount(e.Amount),
		EffectiveDate: formatDate(e.EffectiveDate),
		Reason:        e.Reason,
	}
}

func mapCommissionExtractToResponse(e *report.CommissionExtract) CommissionExtractResponse {
	response := CommissionExtractResponse{
		ConsultantID:   e.ConsultantRef.String(),
		ConsultantName: e.ConsultantName,
		From:           formatDate(e.From),
		To:             formatDate(e.To),
		Entries:        make([]CommissionEntryResponse, 0, len(e.Entries)),
		Credits:        formatAmount(e.Credits),
		Debits:         formatAmount(e.Debits),
		Balance:        formatAmount(e.Balance),
	}
	for _, entry := range e.Entries {
		response.Entries = append(response.Entries, mapCommissionEntry(entry))
	}
	return response
}
