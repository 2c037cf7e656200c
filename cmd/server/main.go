package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	bankingapp "github.com/sistemita/backend/internal/application/banking"
	invoicingapp "github.com/sistemita/backend/internal/application/invoicing"
	"github.com/sistemita/backend/internal/domain/shared"
	"github.com/sistemita/backend/internal/infrastructure/cache"
	"github.com/sistemita/backend/internal/infrastructure/config"
	"github.com/sistemita/backend/internal/infrastructure/event"
	"github.com/sistemita/backend/internal/infrastructure/logger"
	"github.com/sistemita/backend/internal/infrastructure/persistence"
	"github.com/sistemita/backend/internal/infrastructure/scheduler"
	"github.com/sistemita/backend/internal/infrastructure/statement"
	"github.com/sistemita/backend/internal/infrastructure/telemetry"
	"github.com/sistemita/backend/internal/interfaces/http/handler"
	"github.com/sistemita/backend/internal/interfaces/http/middleware"
	"github.com/sistemita/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Sistemita Backend API
//	@version		1.0
//	@description	Invoices, credit note imputations and bank reconciliation

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()

	// Telemetry: traces, metrics and logs share the collector endpoint
	tracerCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, tracerCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, tracerCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, shutdown := range []func(context.Context) error{
			tracerProvider.Shutdown, meterProvider.Shutdown, loggerProvider.Shutdown,
		} {
			if err := shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down telemetry", zap.Error(err))
			}
		}
	}()
	log = loggerProvider.Bridge(log, zapcore.InfoLevel)

	log.Info("Starting Sistemita",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Database.LogLevel), cfg.Database.SlowThreshold)
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog), persistence.WithTracing(dbTracing))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	idempotencyStore, err := cache.NewIdempotencyStore(ctx, cfg.Redis, cfg.App.Env != "production", log)
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Domain events: the ledger log handler records every imputation and settlement
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		event.NewLedgerLogHandler(log),
		idempotencyStore,
		shared.IdempotencyConfig{TTL: cfg.Redis.IdempotencyTTL, Enabled: true},
		log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("sistemita/ledger"))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	defaultEncoding, err := statement.ParseEncoding(cfg.Statement.DefaultEncoding)
	if err != nil {
		log.Fatal("Invalid statement encoding", zap.Error(err))
	}

	// Application services
	invoicingScope := persistence.NewInvoicingTransactionScope(db.DB)
	bankingScope := persistence.NewBankingTransactionScope(db.DB)

	invoiceService := invoicingapp.NewInvoiceService(persistence.NewGormInvoiceRepository(db.DB), log)
	invoiceService.SetEventPublisher(eventBus)

	imputationService := invoicingapp.NewImputationService(invoicingScope, log)
	imputationService.SetEventPublisher(eventBus)
	imputationService.SetMetrics(ledgerMetrics)

	importService := bankingapp.NewStatementImportService(bankingScope, bankingapp.StatementImportConfig{
		DefaultEncoding: defaultEncoding,
		MaxRowErrors:    cfg.Statement.MaxRowErrors,
	}, log)
	importService.SetMetrics(ledgerMetrics)

	reconciliationService := bankingapp.NewReconciliationService(bankingScope, nil, bankingapp.ReconciliationConfig{
		BatchSize:   cfg.Reconciliation.BatchSize,
		StopOnError: cfg.Reconciliation.StopOnError,
	}, log)
	reconciliationService.SetEventPublisher(eventBus)
	reconciliationService.SetMetrics(ledgerMetrics)

	var reconcileScheduler *scheduler.ReconciliationScheduler
	if cfg.Reconciliation.Enabled && cfg.Reconciliation.Schedule != "" {
		schedule, err := scheduler.ParseSchedule(cfg.Reconciliation.Schedule)
		if err != nil {
			log.Fatal("Invalid reconciliation schedule", zap.Error(err))
		}
		reconcileScheduler = scheduler.NewReconciliationScheduler(scheduler.ReconciliationSchedulerConfig{
			Schedule:   schedule,
			JobTimeout: 30 * time.Minute,
		}, reconciliationService, log.Named("scheduler"))
		if err := reconcileScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	tracingCfg := middleware.DefaultTracingConfig()
	tracingCfg.Enabled = tracerProvider.IsEnabled()
	tracingCfg.ServiceName = cfg.Telemetry.ServiceName

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(tracingCfg))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(meterProvider.Meter("sistemita/http"), log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	bankingHandler := handler.NewBankingHandler(importService, reconciliationService, cfg.Reconciliation.Enabled)
	if reconcileScheduler != nil {
		bankingHandler.WithScheduler(reconcileScheduler)
	}

	// Swagger documentation endpoint
	router.MountDocs(engine, middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:    cfg.Swagger.Enabled,
		AllowedIPs: cfg.Swagger.AllowedIPs,
	}))

	r := router.NewRouter(engine)
	router.Setup(r, router.Handlers{
		Health:     handler.NewHealthHandler(db, version),
		Invoice:    handler.NewInvoiceHandler(invoiceService),
		Imputation: handler.NewImputationHandler(imputationService),
		Banking:    bankingHandler,
	}, router.LedgerOptions{
		Idempotency: middleware.Idempotency(idempotencyStore, cfg.Redis.IdempotencyTTL, log),
		UploadLimit: cfg.Statement.MaxUploadSize,
	})

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
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if reconcileScheduler != nil {
		if err := reconcileScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping reconciliation scheduler", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
