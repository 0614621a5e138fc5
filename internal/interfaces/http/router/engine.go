package router

import (
	"fmt"
	"time"

	_ "github.com/erp/ledger/docs"
	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig carries what the HTTP engine needs besides handlers
type EngineConfig struct {
	Config *config.Config
	Logger *zap.Logger
	JWT    *auth.JWTService
	// Limiter is nil when rate limiting is disabled
	Limiter *limiter.Limiter
	// Meter is nil when metrics are disabled
	Meter metric.Meter
	// RequestTimeout bounds each request context; zero disables it
	RequestTimeout time.Duration
}

// NewEngine builds the gin engine with the global middleware chain, health
// routes and the versioned ledger API.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	if cfg.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.Config.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Config.Telemetry.ServiceName,
			Enabled:     cfg.Config.Telemetry.Enabled,
		}),
		middleware.SpanErrorMarker(),
		metrics,
		middleware.Secure(),
	)
	if cors := middleware.CORS(middleware.CORSConfig{AllowOrigins: cfg.Config.HTTP.CORSAllowOrigins}); cors != nil {
		engine.Use(cors)
	}
	if cfg.Limiter != nil {
		engine.Use(middleware.RateLimit(cfg.Limiter))
	}
	engine.Use(middleware.BodyLimit(middleware.DefaultBodyLimit), middleware.Timeout(cfg.RequestTimeout))

	engine.GET("/health", h.System.Health)

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	required := cfg.Config.JWT.Required
	api := NewRouter(engine, WithLogger(cfg.Logger), WithGroupMiddleware(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: cfg.JWT,
			Required:   required,
			SkipPaths:  []string{"/api/v1/health"},
			Logger:     cfg.Logger,
		}),
		middleware.IdentityMiddleware(middleware.IdentityConfig{
			HeaderEnabled: !required,
			SkipPaths:     []string{"/api/v1/health"},
		}),
	))
	api.Register(LedgerRoutes(h, middleware.PermissionConfig{
		AllowAnonymous: !required,
		Logger:         cfg.Logger,
	})...)
	api.Register(NewDomainGroup("system", "").GET("/health", h.System.Health))
	api.Setup()

	return engine, nil
}
