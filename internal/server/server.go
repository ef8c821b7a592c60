package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/praxisuite/therabill/internal/appointment"
	"github.com/praxisuite/therabill/internal/billing"
	billingdomain "github.com/praxisuite/therabill/internal/billing/domain"
	"github.com/praxisuite/therabill/internal/catalog"
	catalogdomain "github.com/praxisuite/therabill/internal/catalog/domain"
	"github.com/praxisuite/therabill/internal/claims"
	claimsdomain "github.com/praxisuite/therabill/internal/claims/domain"
	"github.com/praxisuite/therabill/internal/clock"
	"github.com/praxisuite/therabill/internal/config"
	"github.com/praxisuite/therabill/internal/copayment"
	copaymentdomain "github.com/praxisuite/therabill/internal/copayment/domain"
	"github.com/praxisuite/therabill/internal/locking"
	"github.com/praxisuite/therabill/internal/migration"
	"github.com/praxisuite/therabill/internal/observability"
	obsmiddleware "github.com/praxisuite/therabill/internal/observability/logger"
	obsmetrics "github.com/praxisuite/therabill/internal/observability/metrics"
	obstracing "github.com/praxisuite/therabill/internal/observability/tracing"
	"github.com/praxisuite/therabill/internal/patient"
	"github.com/praxisuite/therabill/internal/providers/pdf"
	"github.com/praxisuite/therabill/internal/scheduler"
	"github.com/praxisuite/therabill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	observability.Module,
	db.Module,
	migration.Module,
	locking.Module,
	catalog.Module,
	patient.Module,
	appointment.Module,
	copayment.Module,
	billing.Module,
	claims.Module,
	pdf.Module,
	scheduler.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware())
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	GenID      *snowflake.Node
	CatalogSvc catalogdomain.Service
	BillingSvc billingdomain.Service
	ClaimsSvc  claimsdomain.Service
	CopaySvc   copaymentdomain.Calculator
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	genID      *snowflake.Node
	catalogSvc catalogdomain.Service
	billingSvc billingdomain.Service
	claimsSvc  claimsdomain.Service
	copaySvc   copaymentdomain.Calculator
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		genID:      p.GenID,
		catalogSvc: p.CatalogSvc,
		billingSvc: p.BillingSvc,
		claimsSvc:  p.ClaimsSvc,
		copaySvc:   p.CopaySvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	catalog := api.Group("/catalog")
	{
		catalog.POST("/treatments", s.CreateTreatment)
		catalog.GET("/treatments", s.ListTreatments)
		catalog.POST("/insurer-groups", s.CreateInsurerGroup)
		catalog.GET("/insurer-groups", s.ListInsurerGroups)
		catalog.POST("/insurers", s.CreateInsurer)
		catalog.GET("/insurers", s.ListInsurers)
		catalog.POST("/price-periods", s.CreatePricePeriod)
		catalog.GET("/price-periods", s.ListPricePeriods)
		catalog.POST("/price-periods/:id/close", s.ClosePricePeriod)
		catalog.GET("/prices/resolve", s.ResolvePrice)
		catalog.POST("/price-periods/validate", s.ValidatePricePeriods)
	}

	cycles := api.Group("/billing-cycles")
	{
		cycles.POST("", s.CreateBillingCycles)
		cycles.GET("", s.ListBillingCycles)
		cycles.GET("/:id", s.GetBillingCycle)
		cycles.DELETE("/:id", s.DeleteBillingCycle)
		cycles.GET("/:id/items", s.ListBillingItems)
		cycles.POST("/:id/items", s.CreateBillingItem)
		cycles.POST("/:id/run", s.RunBillingCycle)
		cycles.POST("/:id/recompute", s.RecomputeBillingCycleTotals)
		cycles.POST("/:id/transition", s.TransitionBillingCycle)
		cycles.POST("/:id/claims", s.GenerateInsurerClaims)
		cycles.GET("/:id/claims", s.ListInsurerClaims)
		cycles.POST("/:id/private-invoices", s.GeneratePrivateInvoices)
		cycles.GET("/:id/private-invoices", s.ListPrivateInvoices)
	}

	claimsGroup := api.Group("/claims")
	{
		claimsGroup.POST("/:id/copay-invoices", s.GenerateCopayInvoices)
		claimsGroup.GET("/:id/copay-invoices", s.ListCopayInvoices)
	}

	invoices := api.Group("/invoices")
	{
		invoices.GET("/overdue", s.ListOverdueInvoices)
		invoices.POST("/:kind/:id/sent", s.MarkInvoiceSent)
		invoices.POST("/:kind/:id/paid", s.MarkInvoicePaid)
		invoices.GET("/private/:id/pdf", s.RenderPrivateInvoicePDF)
	}

	copay := api.Group("/copayments")
	{
		copay.GET("/patients/:id/allowance", s.GetCopayAllowance)
	}
}
