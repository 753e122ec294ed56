package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caixa-installment-ledger/internal/caixa_api"
	"github.com/caixa-installment-ledger/internal/caixa_api/service"
	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/config"
	"github.com/caixa-installment-ledger/internal/data/mongo"
	"github.com/caixa-installment-ledger/internal/data/postgres"
	"github.com/caixa-installment-ledger/internal/logger"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
	"github.com/caixa-installment-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("caixa_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	loc, err := cfg.Ledger.Location()
	if err != nil {
		log.Error("Failed to load ledger timezone", "timezone", cfg.Ledger.Timezone, "error", err)
		os.Exit(1)
	}
	clk := clock.NewSystem(loc)

	// Initialize databases with app context; migrations run here when configured
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
	pool := postgresDB.Pool()
	paymentRepo := postgres.NewPaymentRepository(log, pool)
	installmentRepo := postgres.NewInstallmentRepository(log, pool)
	outboxRepo := postgres.NewOutboxRepository(log, pool)
	directoryRepo := postgres.NewDirectoryRepository(log, pool)
	reportRepo := postgres.NewReportRepository(log, pool)
	commissionRepo := mongo.NewCommissionRepository(log, mongoDB.Database())

	// Initialize metrics
	registry := metrics.NewRegistry()
	ledgerMetrics := metrics.NewLedger(registry)

	// Initialize services
	deps := service.PaymentServiceDeps{
		DB:              pool,
		Payments:        paymentRepo,
		Installments:    installmentRepo,
		Outbox:          outboxRepo,
		Directory:       directoryRepo,
		Clock:           clk,
		MaxInstallments: cfg.Ledger.MaxInstallments,
		Metrics:         ledgerMetrics,
	}
	services := caixa_api.Services{
		Payments:    service.NewPaymentService(log, deps),
		Settlements: service.NewSettlementService(log, deps),
		Reports: service.NewReportService(log, service.ReportServiceDeps{
			Payments:     paymentRepo,
			Installments: installmentRepo,
			Reports:      reportRepo,
			Directory:    directoryRepo,
			Commissions:  commissionRepo,
			Clock:        clk,
		}),
	}

	// Initialize REST server
	server := caixa_api.NewServer(log, cfg, services, clk, registry)
	log.Info("REST server initialized",
		"max_installments", cfg.Ledger.MaxInstallments,
		"timezone", loc.String(),
	)

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Drain in-flight requests before the pool goes away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
