package components

import (
	"log/slog"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/commission_processor/service"
	"github.com/caixa-installment-ledger/internal/config"
	"github.com/caixa-installment-ledger/internal/domain/commission"
	"github.com/caixa-installment-ledger/internal/domain/directory"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
)

// CreateDerivationService creates a new DerivationService with all its dependencies.
// The returned release func stops the worker pool, if one was created.
func CreateDerivationService(
	dir directory.Reader,
	commissionRepo commission.Repository,
	clk clock.Clock,
	m *metrics.Commission,
	logger *slog.Logger,
	cfg *config.Config,
) (service.DerivationService, func()) {
	validator := NewEventValidator(commissionRepo, logger)
	rateResolver := NewRateResolver(dir, logger)
	settlements := NewSettlementFinder(commissionRepo, logger)
	recorder := NewEntryRecorder(commissionRepo, logger)

	baseService := service.NewDerivationService(
		validator,
		rateResolver,
		settlements,
		recorder,
		clk,
		m,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolDerivationService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)

	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService, func() {}
	}

	logger.Info("Created worker pool derivation service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService, workerPoolService.Shutdown
}
