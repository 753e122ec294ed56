package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/caixa-installment-ledger/internal/config"
	"github.com/caixa-installment-ledger/internal/domain/outbox"
	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockEventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func TestPoller_ProcessPendingMessages(t *testing.T) {
	cfg := &config.OutboxConfig{
		PollingInterval:  time.Second,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}

	message1 := pendingMessage(1, 0)
	message2 := pendingMessage(2, 0)
	exhausted := pendingMessage(3, 2)
	malformed := pendingMessage(4, 0)

	tests := []struct {
		name          string
		setupMocks    func(repo *MockOutboxRepo, publisher *MockEventPublisher)
		expectedError string
		outcomes      map[string]int
	}{
		{
			name: "successful processing of pending messages",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				publisher.On("Publish", mock.Anything, message1).Return(nil).Once()
				publisher.On("Publish", mock.Anything, message2).Return(nil).Once()
			},
			outcomes: map[string]int{metrics.PublishOutcomePublished: 2},
		},
		{
			name: "error getting pending messages",
			setupMocks: func(repo *MockOutboxRepo, _ *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return(nil, errors.New("db error")).Once()
			},
			expectedError: "failed to get pending outbox messages",
		},
		{
			name: "no pending messages",
			setupMocks: func(repo *MockOutboxRepo, _ *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil).Once()
			},
		},
		{
			name: "error publishing one message",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{message1, message2}, nil).Once()
				publisher.On("Publish", mock.Anything, message1).Return(errors.New("publish error")).Once()
				repo.On("IncrementAttempts", mock.Anything, int64(1)).Return(nil).Once()
				publisher.On("Publish", mock.Anything, message2).Return(nil).Once()
			},
			outcomes: map[string]int{metrics.PublishOutcomePublished: 1, metrics.PublishOutcomeRetry: 1},
		},
		{
			name: "max retry attempts reached",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{exhausted}, nil).Once()
				publisher.On("Publish", mock.Anything, exhausted).Return(errors.New("publish error")).Once()
				repo.On("IncrementAttempts", mock.Anything, int64(3)).Return(nil).Once()
				repo.On("UpdateStatus", mock.Anything, int64(3), shared.OutboxStatusFailedToPublish).Return(nil).Once()
			},
			outcomes: map[string]int{metrics.PublishOutcomeFailed: 1},
		},
		{
			name: "malformed payload is not retried",
			setupMocks: func(repo *MockOutboxRepo, publisher *MockEventPublisher) {
				repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{malformed}, nil).Once()
				publisher.On("Publish", mock.Anything, malformed).
					Return(fmt.Errorf("%w: outbox 4", ErrMalformedPayload)).Once()
			},
			outcomes: map[string]int{metrics.PublishOutcomeFailed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockOutboxRepo{}
			publisher := &MockEventPublisher{}
			registry := prometheus.NewRegistry()
			poller := NewPoller(cfg, repo, publisher, metrics.NewCommission(registry), newTestLogger())

			tt.setupMocks(repo, publisher)

			err := poller.processPendingMessages(context.Background())

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			publisher.AssertExpectations(t)
			if len(tt.outcomes) > 0 {
				assert.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expectedOutcomes(tt.outcomes)), "caixa_outbox_messages_published_total"))
			}
		})
	}
}

func expectedOutcomes(outcomes map[string]int) string {
	var b strings.Builder
	b.WriteString("# HELP caixa_outbox_messages_published_total Outbox publish attempts, by outcome.\n")
	b.WriteString("# TYPE caixa_outbox_messages_published_total counter\n")
	// the text format lists labels in sorted order
	for _, outcome := range []string{metrics.PublishOutcomeFailed, metrics.PublishOutcomePublished, metrics.PublishOutcomeRetry} {
		if n, ok := outcomes[outcome]; ok {
			fmt.Fprintf(&b, "caixa_outbox_messages_published_total{outcome=%q} %d\n", outcome, n)
		}
	}
	return b.String()
}

func TestPoller_Start(t *testing.T) {
	repo := &MockOutboxRepo{}
	publisher := &MockEventPublisher{}
	cfg := &config.OutboxConfig{
		PollingInterval:  10 * time.Millisecond,
		BatchSize:        10,
		MaxRetryAttempts: 3,
	}
	poller := NewPoller(cfg, repo, publisher, nil, newTestLogger())

	repo.On("GetPending", mock.Anything, 10).Return([]*outbox.Message{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		poller.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}
	assert.NotEmpty(t, repo.Calls)
}
