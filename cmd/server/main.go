package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/erp/ledger/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"
)

var version = "dev"

//	@title			Ledger API
//	@version		1.0
//	@description	Multi-currency receivables and payables ledger with settlement, offset and adjustment audit trail

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	defer func() {
		if err := loggerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down logger provider", zap.Error(err))
		}
	}()
	log = loggerProvider.Bridge(log, cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))

	ledgerMetrics, err := telemetry.NewLedgerMetrics(meterProvider.Meter("ledger"))
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:        log,
		LogLevel:      cfg.Log.Level,
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        "postgresql",
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() { _ = idempotencyStore.Close() }()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = redisClient.Close() }()
	}

	eventBus := event.NewInMemoryEventBus(log)
	activity := event.NewIdempotentHandler(event.NewLedgerActivityLogger(log), idempotencyStore, cfg.Ledger.IdempotencyTTL, log)
	eventBus.Subscribe(activity)
	log.Info("Event handlers registered", zap.Strings("ledger_activity_events", activity.EventTypes()))

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	services := ledgerapp.NewServices(ledgerapp.Dependencies{
		UnitOfWork:  persistence.NewUnitOfWork(db.DB, cfg.Database.LockTimeout),
		Publisher:   eventBus,
		Idempotency: idempotencyStore,
		Metrics:     ledgerMetrics,
		Logger:      log,
		Options: ledgerapp.Options{
			SyncAccountDebt: cfg.Ledger.SyncAccountDebt,
			MaxRetries:      cfg.Ledger.MaxRetries,
			IdempotencyTTL:  cfg.Ledger.IdempotencyTTL,
			PendingTTL:      cfg.Ledger.PendingTTL,
		},
	})

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	system := handler.NewSystemHandler(cfg.App.Name, version, checks)

	var rateLimiter *limiter.Limiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter, err = middleware.NewRateLimiter(middleware.RateLimitConfig{
			Requests: cfg.HTTP.RateLimitRequests,
			Window:   cfg.HTTP.RateLimitWindow,
			Redis:    redisClient,
		})
		if err != nil {
			log.Fatal("Failed to create rate limiter", zap.Error(err))
		}
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Config:         cfg,
		Logger:         log,
		JWT:            auth.NewJWTService(cfg.JWT),
		Limiter:        rateLimiter,
		Meter:          meterProvider.Meter("http.server"),
		RequestTimeout: cfg.HTTP.WriteTimeout,
	}, router.NewHandlers(services, system))
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
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
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	delivered, failed := eventBus.Stats()
	log.Info("Server exited gracefully",
		zap.Int64("events_delivered", delivered),
		zap.Int64("events_failed", failed),
	)
}
