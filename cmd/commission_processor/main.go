package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/commission_processor/components"
	"github.com/caixa-installment-ledger/internal/commission_processor/consumer"
	"github.com/caixa-installment-ledger/internal/commission_processor/outbox_poller"
	"github.com/caixa-installment-ledger/internal/config"
	"github.com/caixa-installment-ledger/internal/data/mongo"
	"github.com/caixa-installment-ledger/internal/data/postgres"
	"github.com/caixa-installment-ledger/internal/logger"
	"github.com/caixa-installment-ledger/internal/platform/messaging/consumers"
	"github.com/caixa-installment-ledger/internal/platform/messaging/producers"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("commission_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Commission Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Error("Failed to load ledger timezone", "timezone", cfg.Ledger.Timezone, "error", err)
		os.Exit(1)
	}

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB.Pool())
	directoryRepo := postgres.NewDirectoryRepository(log, postgresDB.Pool())
	commissionRepo := mongo.NewCommissionRepository(log, mongoDB.Database())
	if err := commissionRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure commission ledger indexes", "error", err)
		os.Exit(1)
	}

	// Initialize metrics
	registry := metrics.NewRegistry()
	commissionMetrics := metrics.NewCommission(registry)
	metricsServer := metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry)

	// Initialize Kafka producers
	ledgerProducer, err := producers.NewLedgerEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize ledger event producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// a nil *DLQProducer must not reach the consumer as a non-nil interface
	var dlq consumers.DeadLetterSink
	if dlqProducer != nil {
		dlq = dlqProducer
	}

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, dlq)

	// Initialize derivation service
	derivationService, releasePool := components.CreateDerivationService(
		directoryRepo,
		commissionRepo,
		clock.NewSystem(loc),
		commissionMetrics,
		log,
		cfg,
	)

	// Initialize ledger event handler
	ledgerEventHandler := consumer.NewLedgerEventHandler(
		log,
		derivationService,
		commissionMetrics,
	)

	// Initialize outbox poller
	eventPublisher := outbox_poller.NewEventPublisher(
		outboxRepo,
		ledgerProducer,
		log,
	)
	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		outboxRepo,
		eventPublisher,
		commissionMetrics,
		log,
	)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer; it runs until appCtx is cancelled
	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.LedgerEventsTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, ledgerEventHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe Kafka consumer", "error", err)
		os.Exit(1)
	}

	// Start outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Start metrics listener in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := metrics.Serve(appCtx, metricsServer, cfg.Server.ShutdownTimeout); err != nil {
			errChan <- fmt.Errorf("metrics server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		<-kafkaConsumer.Done()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	releasePool()

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = ledgerProducer.Close(); err != nil {
		log.Error("Error closing ledger event producer", "error", err)
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Commission Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Commission Processor shutdown completed with errors")
	} else {
		log.Info("Commission Processor shutdown completed successfully")
	}
}
