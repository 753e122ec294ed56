package producers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter is shared across package test files - defined in ledger_event_test.go

func TestDLQProducer_PublishToDLQ(t *testing.T) {
	dlqTopic := "test-dlq-topic"
	ctx := context.Background()
	fixed := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	t.Run("SuccessfulPublishToDLQ", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(newTestLogger(), mockWriter, dlqTopic)
		producer.now = func() time.Time { return fixed }

		key := "original-key"
		originalMessageValue := []byte(`{"data":"original_payload"}`)
		reason := "undecodable ledger event"

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			var payload dlqEnvelope
			if err := json.Unmarshal(msg.Value, &payload); err != nil {
				return false
			}
			return string(msg.Key) == key &&
				payload.OriginalKey == key &&
				payload.OriginalValue == string(originalMessageValue) &&
				payload.DLQReason == reason &&
				payload.Timestamp == "2024-03-15T12:00:00Z" &&
				headerValue(msg, "dlq-reason") == reason
		})).Return(nil).Once()

		err := producer.PublishToDLQ(ctx, key, originalMessageValue, reason)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("PublishToDLQReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(newTestLogger(), mockWriter, dlqTopic)
		writerError := errors.New("kafka DLQ write error")

		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerError).Once()

		err := producer.PublishToDLQ(ctx, "fail-key", []byte("fail_payload"), "writer_error")
		require.Error(t, err)
		assert.ErrorIs(t, err, writerError)
		mockWriter.AssertExpectations(t)
	})

	t.Run("DisabledProducer", func(t *testing.T) {
		var disabled *DLQProducer

		err := disabled.PublishToDLQ(ctx, "some-key", []byte("some_payload"), "disabled_test")
		assert.ErrorIs(t, err, ErrDLQDisabled)

		withoutWriter := &DLQProducer{logger: newTestLogger(), dlqTopic: dlqTopic}
		err = withoutWriter.PublishToDLQ(ctx, "some-key", []byte("some_payload"), "disabled_test")
		assert.ErrorIs(t, err, ErrDLQDisabled)
	})
}

func TestDLQProducer_Close(t *testing.T) {
	t.Run("SuccessfulClose", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(newTestLogger(), mockWriter, "dlq")
		mockWriter.On("Close").Return(nil).Once()

		require.NoError(t, producer.Close())
		mockWriter.AssertExpectations(t)
	})

	t.Run("CloseReturnsErrorOnWriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := newDLQProducer(newTestLogger(), mockWriter, "dlq")
		closeError := errors.New("kafka DLQ close error")
		mockWriter.On("Close").Return(closeError).Once()

		err := producer.Close()
		require.Error(t, err)
		assert.ErrorIs(t, err, closeError)
	})

	t.Run("CloseDisabledProducer", func(t *testing.T) {
		var disabled *DLQProducer
		require.NoError(t, disabled.Close())
	})
}
