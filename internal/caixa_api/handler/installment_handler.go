package handler

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/caixa-installment-ledger/internal/caixa_api/service"
	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/gin-gonic/gin"
)

// InstallmentHandler handles HTTP requests for installment settlement
type InstallmentHandler struct {
	settlementService service.SettlementService
	clock             clock.Clock
	logger            *slog.Logger
}

// NewInstallmentHandler creates a new installment handler
func NewInstallmentHandler(logger *slog.Logger, settlementService service.SettlementService, clk clock.Clock) *InstallmentHandler {
	return &InstallmentHandler{
		settlementService: settlementService,
		clock:             clk,
		logger:            logger,
	}
}

// Settle marks an installment paid. The body is optional; settling twice answers 200 with already_paid.
func (h *InstallmentHandler) Settle(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req SettleInstallmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("Invalid request body", "error", err)
		RespondValidationError(c, "invalid request body: "+err.Error())
		return
	}

	var paidDate time.Time
	if req.PaidDate != "" {
		parsed, err := clock.ParseDate(req.PaidDate)
		if err != nil {
			RespondValidationError(c, "paid_date must be a YYYY-MM-DD date")
			return
		}
		paidDate = parsed
	}

	result, err := h.settlementService.MarkPaid(c.Request.Context(), id, paidDate)
	if err != nil {
		h.logger.Error("Failed to settle installment", "installment_id", id.String(), "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapSettlementToResponse(result, clock.Today(h.clock)))
}

// Revert returns a paid installment to pending. Administrative; a reason is required.
func (h *InstallmentHandler) Revert(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req RevertSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondValidationError(c, "reason is required")
		return
	}

	inst, err := h.settlementService.RevertSettlement(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.logger.Error("Failed to revert settlement", "installment_id", id.String(), "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapInstallmentToResponse(inst, clock.Today(h.clock)))
}
