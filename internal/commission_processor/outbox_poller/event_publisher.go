package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caixa-installment-ledger/internal/domain/outbox"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/caixa-installment-ledger/internal/platform/messaging/producers"
)

// ErrMalformedPayload marks an outbox row whose payload can never be published
var ErrMalformedPayload = errors.New("malformed outbox payload")

// EventPublisher publishes outbox messages to the ledger event stream
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.LedgerEventPublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.LedgerEventPublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// Publish sends the message's ledger event to Kafka and marks the row PROCESSED.
// A failure after the write leaves the row pending; the consumer dedupes the replay by event id.
func (p *EventPublisherImpl) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetLedgerEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal ledger event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("%w: outbox %d: %v", ErrMalformedPayload, message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if err := p.producer.PublishLedgerEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish ledger event %s: %w", event.EventID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", event.EventID, "error", err,
		)
		return fmt.Errorf("ledger event %s published, but failed to mark outbox %d as PROCESSED: %w", event.EventID, message.ID, err)
	}

	logger.Info("Outbox message published and marked as PROCESSED",
		"outbox_id", message.ID,
		"event_id", event.EventID,
		"event_type", string(event.Type),
	)
	return nil
}
