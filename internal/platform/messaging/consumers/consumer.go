package consumers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caixa-installment-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one message. Returning a PermanentError parks the message in the DLQ;
// any other error is retried with backoff until it succeeds or the consumer stops.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Done() <-chan struct{}
	Close() error
}

// DeadLetterSink receives messages that can never be processed
type DeadLetterSink interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
}

// MessageReader is the part of *kafka.Reader the consumer relies on
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PermanentError marks a handler failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	return "permanent failure: " + e.Err.Error()
}

func (e PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the consumer dead-letters the message instead of retrying it
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return PermanentError{Err: err}
}

// KafkaConsumer implements Consumer using Kafka
type KafkaConsumer struct {
	reader       MessageReader
	dlq          DeadLetterSink
	logger       *slog.Logger
	topic        string
	groupID      string
	retryBackoff time.Duration
	maxBackoff   time.Duration
	done         chan struct{}
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig, dlq DeadLetterSink) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       cfg.LedgerEventsTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	})
	return newKafkaConsumer(logger, reader, dlq, cfg.LedgerEventsTopic, cfg.ConsumerGroup)
}

func newKafkaConsumer(logger *slog.Logger, reader MessageReader, dlq DeadLetterSink, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader:       reader,
		dlq:          dlq,
		logger:       logger,
		topic:        topic,
		groupID:      groupID,
		retryBackoff: 500 * time.Millisecond,
		maxBackoff:   30 * time.Second,
		done:         make(chan struct{}),
	}
}

// Subscribe starts consuming in the background. Done is closed once the loop exits.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return fmt.Errorf("message handler is required")
	}

	c.logger.Info("Subscribed to Kafka topic",
		"topic", c.topic,
		"group_id", c.groupID,
	)

	go c.run(ctx, handler)
	return nil
}

func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *KafkaConsumer) run(ctx context.Context, handler MessageHandler) {
	defer close(c.done)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "error", err)
			if !c.sleep(ctx, time.Second) {
				return
			}
			continue
		}

		c.logger.Debug("Received message from Kafka",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if !c.process(ctx, msg, handler) {
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// process runs handler until the message is done with. It returns false when the
// consumer is stopping and the message must stay uncommitted.
func (c *KafkaConsumer) process(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}

		var permanent PermanentError
		if errors.As(err, &permanent) {
			return c.deadLetter(ctx, msg, err)
		}

		c.logger.Warn("Failed to process message, retrying",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempt", attempt,
			"error", err,
		)
		if !c.sleep(ctx, backoff) {
			return false
		}
		backoff = c.nextBackoff(backoff)
	}
}

func (c *KafkaConsumer) deadLetter(ctx context.Context, msg kafka.Message, cause error) bool {
	c.logger.Error("Message cannot be processed",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
		"error", cause,
	)
	if c.dlq == nil {
		return true
	}

	// committing before the DLQ accepted the message would lose it
	backoff := c.retryBackoff
	for {
		err := c.dlq.PublishToDLQ(ctx, string(msg.Key), msg.Value, cause.Error())
		if err == nil {
			return true
		}
		c.logger.Error("Failed to dead-letter message, retrying",
			"offset", msg.Offset,
			"error", err,
		)
		if !c.sleep(ctx, backoff) {
			return false
		}
		backoff = c.nextBackoff(backoff)
	}
}

func (c *KafkaConsumer) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > c.maxBackoff {
		return c.maxBackoff
	}
	return next
}

func (c *KafkaConsumer) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
