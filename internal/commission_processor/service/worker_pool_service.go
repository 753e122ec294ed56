package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/caixa-installment-ledger/internal/domain/shared"
	"github.com/panjf2000/ants/v2"
)

// WorkerPoolDerivationService bounds concurrent derivations with an ants pool.
// ProcessEvent still blocks until its event is done so the consumer commits
// offsets only after the entry is stored.
type WorkerPoolDerivationService struct {
	baseService DerivationService
	pool        *ants.Pool
	logger      *slog.Logger
	inflight    atomic.Int64
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolDerivationService(
	baseService DerivationService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolDerivationService, error) {
	// ants treats a non-positive size as unbounded
	if config.Size <= 0 {
		return nil, fmt.Errorf("worker pool size must be greater than 0, got %d", config.Size)
	}
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolDerivationService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessEvent submits event to the pool and waits for the result.
func (s *WorkerPoolDerivationService) ProcessEvent(ctx context.Context, event *shared.LedgerEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Debug("Submitting ledger event to worker pool",
		"event_id", event.EventID.String(),
		"payment_id", event.PaymentID.String(),
	)

	resultChan := make(chan error, 1)

	// workers must not share the caller's event
	eventCopy := *event

	s.inflight.Add(1)
	err := s.pool.Submit(func() {
		defer s.inflight.Add(-1)
		resultChan <- s.baseService.ProcessEvent(ctx, &eventCopy)
	})
	if err != nil {
		s.inflight.Add(-1)
		logger.Error("Failed to submit ledger event to worker pool",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return err
	}

	select {
	case err := <-resultChan:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolDerivationService) Shutdown() {
	s.logger.Info("Shutting down worker pool",
		"running_workers", s.pool.Running(),
		"inflight_events", s.inflight.Load(),
	)
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolDerivationService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolDerivationService) Capacity() int {
	return s.pool.Cap()
}
