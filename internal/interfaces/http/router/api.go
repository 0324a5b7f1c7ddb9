package router

import (
	"github.com/erp/receiving/internal/infrastructure/logger"
	"github.com/erp/receiving/internal/interfaces/http/handler"
	"github.com/erp/receiving/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Config assembles everything the receiving API needs
type Config struct {
	Logger      *zap.Logger
	ServiceName string
	Tracing     bool
	// Meter records HTTP server metrics. Nil disables them.
	Meter       metric.Meter
	MaxBodySize int64
	// Validator checks bearer tokens. Nil selects header authentication.
	Validator      middleware.ActorValidator
	TrustedProxies []string

	System         *handler.SystemHandler
	PurchaseOrders *handler.PurchaseOrderHandler
	Receives       *handler.ReceiveHandler
}

// New builds the gin engine serving /health and the /api/v1 receiving routes
func New(cfg Config) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	middleware.SetupValidator()

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.Tracing}))
	engine.Use(middleware.HTTPMetrics(cfg.Meter, log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.MaxBodySize))

	engine.GET("/health", cfg.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Use(
		middleware.Authenticate(middleware.AuthConfig{Validator: cfg.Validator, Logger: log}),
		middleware.SpanEnricher(),
	)
	r.Register(purchaseOrderRoutes(cfg.PurchaseOrders)).
		Register(receiveRoutes(cfg.Receives))
	r.Setup()

	return engine, nil
}

func purchaseOrderRoutes(h *handler.PurchaseOrderHandler) *DomainGroup {
	g := NewDomainGroup("purchase-orders", "/purchase-orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/pending", h.ListPending)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/status", h.UpdateStatus)
	g.POST("/:id/items", h.AddItem)
	g.PUT("/:id/items/:item_id", h.UpdateItem)
	g.DELETE("/:id/items/:item_id", h.RemoveItem)
	g.GET("/:id/receives", h.ListReceives)
	return g
}

func receiveRoutes(h *handler.ReceiveHandler) *DomainGroup {
	g := NewDomainGroup("receives", "/receives")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.POST("/:id/items", h.AddItem)
	g.PUT("/:id/items/:item_id", h.UpdateItem)
	g.DELETE("/:id/items/:item_id", h.RemoveItem)
	g.POST("/:id/items/:item_id/serials", h.AddSerials)
	g.DELETE("/:id/items/:item_id/serials/:serial_id", h.RemoveSerial)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/cancel", h.Cancel)
	return g
}
