package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/mariahavens/pos/internal/catalog"
	catalogdomain "github.com/mariahavens/pos/internal/catalog/domain"
	"github.com/mariahavens/pos/internal/config"
	"github.com/mariahavens/pos/internal/inventory"
	"github.com/mariahavens/pos/internal/notification"
	obslogger "github.com/mariahavens/pos/internal/observability/logger"
	obsmetrics "github.com/mariahavens/pos/internal/observability/metrics"
	"github.com/mariahavens/pos/internal/order"
	orderdomain "github.com/mariahavens/pos/internal/order/domain"
	"github.com/mariahavens/pos/internal/payment"
	paymentdomain "github.com/mariahavens/pos/internal/payment/domain"
	"github.com/mariahavens/pos/internal/receipt"
	receiptdomain "github.com/mariahavens/pos/internal/receipt/domain"
	"github.com/mariahavens/pos/internal/sequence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	fx.Provide(registerGin),
	sequence.Module,
	notification.Module,
	catalog.Module,
	inventory.Module,
	order.Module,
	payment.Module,
	receipt.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, reg *prometheus.Registry, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(log))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func registerGin(log *zap.Logger, reg *prometheus.Registry, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, reg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
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

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	catalogSvc catalogdomain.Service
	orderSvc   orderdomain.Service
	paymentSvc paymentdomain.Service
	receiptSvc receiptdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	CatalogSvc catalogdomain.Service
	OrderSvc   orderdomain.Service
	PaymentSvc paymentdomain.Service
	ReceiptSvc receiptdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		catalogSvc: p.CatalogSvc,
		orderSvc:   p.OrderSvc,
		paymentSvc: p.PaymentSvc,
		receiptSvc: p.ReceiptSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	orders := v1.Group("/orders")
	orders.POST("", s.CreateOrder)
	orders.GET("", s.ListOrders)
	orders.GET("/:id", s.GetOrder)
	orders.POST("/:id/status", s.TransitionOrder)
	orders.POST("/:id/cancel", s.CancelOrder)
	orders.GET("/:id/payments", s.ListOrderPayments)
	orders.GET("/:id/receipts", s.ListOrderReceipts)

	payments := v1.Group("/payments")
	payments.POST("", s.RecordPayment)
	payments.GET("/:id", s.GetPayment)
	payments.POST("/:id/process", s.ProcessPayment)
	payments.POST("/:id/fail", s.FailPayment)
	payments.POST("/:id/cancel", s.CancelPayment)
	payments.POST("/:id/refund", s.RefundPayment)
	payments.POST("/:id/splits", s.SplitPayment)

	receipts := v1.Group("/receipts")
	receipts.POST("", s.GenerateReceipt)
	receipts.GET("/:id", s.GetReceipt)
	receipts.POST("/:id/void", s.VoidReceipt)
	receipts.POST("/:id/print", s.PrintReceipt)

	v1.GET("/menu-items/:id", s.GetMenuItem)
}
