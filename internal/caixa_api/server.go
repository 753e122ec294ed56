package caixa_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/caixa-installment-ledger/internal/caixa_api/handler"
	"github.com/caixa-installment-ledger/internal/caixa_api/service"
	"github.com/caixa-installment-ledger/internal/clock"
	"github.com/caixa-installment-ledger/internal/config"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Services are the application services the HTTP surface exposes
type Services struct {
	Payments    service.PaymentService
	Settlements service.SettlementService
	Reports     service.ReportService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	cfg        *config.Config
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server with the given services.
// Metrics are served on the API listener under cfg.Metrics.Path.
func NewServer(log *slog.Logger, cfg *config.Config, services Services, clk clock.Clock, reg *prometheus.Registry) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	rt := routes{
		payments:     handler.NewPaymentHandler(log, services.Payments, clk),
		installments: handler.NewInstallmentHandler(log, services.Settlements, clk),
		reports:      handler.NewReportHandler(log, services.Reports),
		metricsPath:  cfg.Metrics.Path,
	}
	if reg != nil {
		rt.httpMetrics = metrics.NewHTTP(reg)
		rt.gatherer = reg
	}

	setupRouter(log, httpRouter, rt)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		cfg:        cfg,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the configured shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
