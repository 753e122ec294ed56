package handler

import (
	"log/slog"
	"time"

	"github.com/caixa-installment-ledger/internal/caixa_api/service"
	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the receipt, daily cash and commission read models
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

func NewReportHandler(logger *slog.Logger, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Receipt renders a payment receipt
func (h *ReportHandler) Receipt(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	receipt, err := h.reportService.Receipt(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to build receipt", "payment_id", id.String(), "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapReceiptToResponse(receipt))
}

// DailyCash builds the cash-register report; without ?date it reports today
func (h *ReportHandler) DailyCash(c *gin.Context) {
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		parsed, err := clock.ParseDate(raw)
		if err != nil {
			RespondValidationError(c, "date must be a YYYY-MM-DD date")
			return
		}
		date = parsed
	}

	daily, err := h.reportService.DailyCash(c.Request.Context(), date)
	if err != nil {
		h.logger.Error("Failed to build daily cash report", "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapDailyCashToResponse(daily))
}

// CommissionExtract lists a consultant's commission entries over a date range
func (h *ReportHandler) CommissionExtract(c *gin.Context) {
	consultantID, ok := parseIDParam(c, "consultant_id")
	if !ok {
		return
	}

	var query DateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondValidationError(c, "from and to are required")
		return
	}
	from, to, problems := parseDateRange(query.From, query.To)
	if len(problems) > 0 {
		RespondValidationError(c, problems...)
		return
	}

	extract, err := h.reportService.CommissionExtract(c.Request.Context(), consultantID, from, to)
	if err != nil {
		h.logger.Error("Failed to build commission extract", "consultant_id", consultantID.String(), "error", err)
		RespondServiceError(c, err)
		return
	}

	RespondOK(c, mapCommissionExtractToResponse(extract))
}
