package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Redis shares counters between instances; nil keeps them in process memory
	Redis *redis.Client
}

// NewRateLimiter builds a fixed-window limiter over the configured store
func NewRateLimiter(cfg RateLimitConfig) (*limiter.Limiter, error) {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil, fmt.Errorf("invalid rate limit %d per %s", cfg.Requests, cfg.Window)
	}
	rate := limiter.Rate{Period: cfg.Window, Limit: int64(cfg.Requests)}

	var store limiter.Store
	if cfg.Redis != nil {
		var err error
		store, err = sredis.NewStoreWithOptions(cfg.Redis, limiter.StoreOptions{
			Prefix:   "ledger:ratelimit",
			MaxRetry: 3,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limit store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}
	return limiter.New(store, rate), nil
}

// RateLimit limits requests per client IP. Store failures let the request through.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		lctx, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			logger.L(c.Request.Context()).Error("Failed to get rate limit context",
				zap.String("ip", ip), zap.Error(err))
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			logger.L(c.Request.Context()).Warn("Rate limit exceeded",
				zap.String("ip", ip), zap.Int64("limit", lctx.Limit))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRateLimited, "Too many requests", GetRequestID(c)))
			return
		}

		c.Next()
	}
}
