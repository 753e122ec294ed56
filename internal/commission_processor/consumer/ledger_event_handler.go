package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/commission_processor/service"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/caixa-installment-ledger/internal/platform/messaging/consumers"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
)

// LedgerEventHandler handles ledger event messages from Kafka
type LedgerEventHandler struct {
	derivationService service.DerivationService
	metrics           *metrics.Commission
	logger            *slog.Logger
}

// NewLedgerEventHandler creates a new handler
func NewLedgerEventHandler(
	logger *slog.Logger,
	derivationService service.DerivationService,
	m *metrics.Commission,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		derivationService: derivationService,
		metrics:           m,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages. Messages that can never produce an entry
// are returned as permanent failures so the consumer dead-letters them.
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.LedgerEvent
	if err := json.Unmarshal(value, &event); err != nil {
		h.logger.Error("Failed to unmarshal ledger event from Kafka message",
			"error", err,
			"message_key", string(key),
		)
		h.metrics.EventSkipped(metrics.SkipReasonInvalidEvent)
		return consumers.Permanent(fmt.Errorf("failed to unmarshal ledger event: %w", err))
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received ledger event",
		"event_id", event.EventID.String(),
		"event_type", string(event.Type),
		"payment_id", event.PaymentID.String(),
		"total_amount", event.TotalAmount.StringFixed(2),
	)

	if err := h.derivationService.ProcessEvent(ctx, &event); err != nil {
		if errors.Is(err, commission.ErrInvalidEvent) {
			return consumers.Permanent(err)
		}
		logger.Error("Failed to derive commission",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("processing ledger event %s failed: %w", event.EventID.String(), err)
	}

	return nil
}
