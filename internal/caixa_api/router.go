package caixa_api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/caixa-installment-ledger/internal/caixa_api/handler"
	"github.com/caixa-installment-ledger/internal/caixa_api/middleware"
	"github.com/caixa-installment-ledger/internal/platform/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// routes bundles everything the router mounts
type routes struct {
	payments     *handler.PaymentHandler
	installments *handler.InstallmentHandler
	reports      *handler.ReportHandler
	httpMetrics  *metrics.HTTP
	gatherer     prometheus.Gatherer
	metricsPath  string
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, rt routes) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(rt.httpMetrics.Middleware())

	v1 := r.Group("/api/v1")
	{
		payments := v1.Group("/payments")
		{
			payments.POST("", rt.payments.Create)
			payments.GET("", rt.payments.List)
			payments.GET("/:id", rt.payments.GetByID)
			payments.GET("/:id/receipt", rt.reports.Receipt)
		}

		installments := v1.Group("/installments")
		{
			installments.POST("/:id/settle", rt.installments.Settle)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/daily-cash", rt.reports.DailyCash)
			reports.GET("/commissions/:consultant_id", rt.reports.CommissionExtract)
		}

		// Administrative corrections
		admin := v1.Group("/admin")
		{
			admin.DELETE("/payments/:id", rt.payments.Delete)
			admin.POST("/installments/:id/revert", rt.installments.Revert)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if rt.gatherer != nil {
		r.GET(rt.metricsPath, gin.WrapH(metrics.Handler(rt.gatherer)))
	}
}
