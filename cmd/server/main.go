package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tradeapp "github.com/erp/receiving/internal/application/trade"
	"github.com/erp/receiving/internal/domain/shared"
	"github.com/erp/receiving/internal/domain/trade"
	"github.com/erp/receiving/internal/infrastructure/auth"
	"github.com/erp/receiving/internal/infrastructure/config"
	"github.com/erp/receiving/internal/infrastructure/event"
	"github.com/erp/receiving/internal/infrastructure/logger"
	"github.com/erp/receiving/internal/infrastructure/migration"
	"github.com/erp/receiving/internal/infrastructure/notification"
	"github.com/erp/receiving/internal/infrastructure/persistence"
	"github.com/erp/receiving/internal/infrastructure/sequence"
	"github.com/erp/receiving/internal/infrastructure/telemetry"
	"github.com/erp/receiving/internal/interfaces/http/handler"
	"github.com/erp/receiving/internal/interfaces/http/middleware"
	"github.com/erp/receiving/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting receiving service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	var httpMeter metric.Meter
	if meters.IsEnabled() {
		httpMeter = meters.Meter("http.server")
	}

	dbOpts := []persistence.Option{
		persistence.WithLogger(logger.NewGormLogger(log, logger.GormLogLevel(cfg.Log.Level), 200*time.Millisecond)),
	}
	if tracer.IsEnabled() && cfg.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithPlugins(telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			DBName:     cfg.Database.DBName,
			LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		})))
	}
	db, err := persistence.NewDatabase(&cfg.Database, dbOpts...)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected")

	if cfg.Migration.AutoMigrate {
		if err := applyMigrations(db.DB, cfg.Migration.Path, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	displayIDs, closeSequence := newDisplayIDGenerator(ctx, cfg.Redis, db.DB, log)

	bus := event.NewInMemoryEventBus(log, event.WithHandlerTimeout(cfg.Event.HandlerTimeout))
	bus.Subscribe(tradeapp.NewActivityLogHandler(persistence.NewGormActivityLogRepository(db.DB), log))
	bus.Subscribe(tradeapp.NewNotificationHandler(notification.NewLogNotifier(log), log))
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	orderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	receiveRepo := persistence.NewGormReceiveRepository(db.DB)
	directory := persistence.NewGormDirectory(db.DB)
	permissions := shared.RolePermissions{}

	orderService := tradeapp.NewPurchaseOrderService(orderRepo, receiveRepo, displayIDs, permissions)
	orderService.SetVendorDirectory(directory)
	orderService.SetCatalog(directory)
	orderService.SetEventPublisher(bus)
	orderService.SetLogger(log)

	receiveService := tradeapp.NewReceiveService(receiveRepo, orderRepo, displayIDs, permissions)
	receiveService.SetLocationRegistry(directory)
	receiveService.SetEventPublisher(bus)
	receiveService.SetLogger(log)

	completion := tradeapp.NewReceiveCompletionEngine(persistence.NewReceivingTransactionScope(db.DB), directory, permissions)
	completion.SetEventPublisher(bus)
	completion.SetLogger(log)
	if meters.IsEnabled() {
		receivingMetrics, err := telemetry.NewReceivingMetrics(meters.Meter("receiving"))
		if err != nil {
			log.Fatal("Failed to create receiving metrics", zap.Error(err))
		}
		completion.SetMetrics(receivingMetrics)
	}

	var validator middleware.ActorValidator
	if cfg.JWT.Enabled {
		validator = auth.NewTokenValidator(cfg.JWT.Secret, cfg.JWT.Issuer)
	} else {
		log.Warn("JWT disabled, the actor is taken from X-Tenant-ID / X-User-ID headers")
	}

	engine, err := router.New(router.Config{
		Logger:         log,
		ServiceName:    cfg.Telemetry.ServiceName,
		Tracing:        tracer.IsEnabled(),
		Meter:          httpMeter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		Validator:      validator,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		System:         handler.NewSystemHandler(cfg.App.Name, version, db),
		PurchaseOrders: handler.NewPurchaseOrderHandler(orderService, receiveService),
		Receives:       handler.NewReceiveHandler(receiveService, completion),
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	// in-flight requests finish first so their events are still delivered
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}
	closeSequence()
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := meters.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// newDisplayIDGenerator keeps display-ID counters in Redis when it is enabled
// and in the database otherwise. An enabled but unreachable Redis is fatal.
func newDisplayIDGenerator(ctx context.Context, cfg config.RedisConfig, db *gorm.DB, log *zap.Logger) (trade.DisplayIDGenerator, func()) {
	if !cfg.Enabled {
		log.Info("Display IDs use database counters")
		return sequence.NewDatabaseGenerator(db), func() {}
	}
	client, err := sequence.NewRedisClient(ctx, cfg.Addr(), cfg.Password, cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	log.Info("Redis connected, display IDs use Redis counters", zap.String("addr", cfg.Addr()))
	return sequence.NewRedisGenerator(client), func() {
		if err := client.Close(); err != nil {
			log.Error("Error closing Redis", zap.Error(err))
		}
	}
}

func applyMigrations(db *gorm.DB, path string, log *zap.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	m, err := migration.New(sqlDB, path, log)
	if err != nil {
		return err
	}
	// Close would also close sqlDB, which the server keeps using
	return m.Up()
}
