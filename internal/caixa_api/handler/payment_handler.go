package handler

import (
	"log/slog"
	"net/http"

	"github.com/caixa-installment-ledger/internal/caixa_api/service"
	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/domain/payment"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// PaymentHandler handles HTTP requests for payment operations
type PaymentHandler struct {
	paymentService service.PaymentService
	clock          clock.Clock
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService, clk clock.Clock) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		clock:          clk,
		logger:         logger,
	}
}

// Create records a payment and its installment schedule
func (h *PaymentHandler) Create(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondValidationError(c, "invalid request body: "+err.Error())
		return
	}

	transactionDate, err := clock.ParseDate(req.TransactionDate)
	if err != nil {
		RespondValidationError(c, "transaction_date must be a YYYY-MM-DD date")
		return
	}

	input := service.CreatePaymentInput{
		TransactionType:  shared.TransactionType(req.TransactionType),
		TotalAmount:      req.TotalAmount,
		InstallmentCount: req.InstallmentCount,
		TransactionDate:  transactionDate,
		Notes:            req.Notes,
	}
	if problems := parseUUIDs(
		uuidField{"client_id", req.ClientID, &input.ClientRef},
		uuidField{"consultant_id", req.ConsultantID, &input.ConsultantRef},
		uuidField{"service_id", req.ServiceID, &input.ServiceRef},
		uuidField{"payment_method_id", req.PaymentMethodID, &input.PaymentMethodRef},
	); len(problems) > 0 {
		RespondValidationError(c, problems...)
		return
	}

	p, err := h.paymentService.CreatePayment(c.Request.Context(), input)
	if err != nil {
		h.logger.Error("Failed to create payment", "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondCreated(c, mapPaymentToResponse(p, clock.Today(h.clock)))
}

// GetByID returns a payment with its installments and their display status
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	p, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get payment", "payment_id", id.String(), "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapPaymentToResponse(p, clock.Today(h.clock)))
}

// List returns a page of payments recorded within the requested dates
func (h *PaymentHandler) List(c *gin.Context) {
	var query ListPaymentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		RespondValidationError(c, "invalid query parameters: "+err.Error())
		return
	}

	from, to, problems := parseDateRange(query.From, query.To)
	if len(problems) > 0 {
		RespondValidationError(c, problems...)
		return
	}

	filter := payment.Filter{From: from, To: to}
	if query.ClientID != "" {
		if problems := parseUUIDs(uuidField{"client_id", query.ClientID, &filter.ClientRef}); len(problems) > 0 {
			RespondValidationError(c, problems...)
			return
		}
	}

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), filter, query.Page, query.PerPage)
	if err != nil {
		h.logger.Error("Failed to list payments", "error", err)
		RespondServiceError(c, err)
		return
	}

	today := clock.Today(h.clock)
	responses := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		responses = append(responses, mapPaymentToResponse(p, today))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, query.Page, query.PerPage, int(total))
}

// Delete removes a payment. Administrative.
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete payment", "payment_id", id.String(), "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondNoContent(c)
}
