package producers

import (
	"context"

	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// LedgerEventPublisher publishes payment settlement events to the ledger topic
type LedgerEventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *shared.LedgerEvent) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicAdmin is the slice of *kafka.Conn used to provision topics
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}
