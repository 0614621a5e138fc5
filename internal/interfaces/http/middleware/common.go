package middleware

import (
	"context"
	"time"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is both the header and the gin key carrying the request ID
const RequestIDKey = "X-Request-ID"

// IdempotencyKeyHeader carries the client-chosen payment idempotency key
const IdempotencyKeyHeader = "Idempotency-Key"

// CORSConfig holds CORS middleware configuration
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       time.Duration
}

// CORS returns the gin-contrib/cors middleware, or nil when no origin is allowed.
// A single "*" allows every origin without credentials.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowOrigins) == 0 {
		return nil
	}

	c := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			RequestIDKey, TenantHeaderKey, OperatorHeaderKey, IdempotencyKeyHeader,
		},
		ExposeHeaders: []string{RequestIDKey, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        cfg.MaxAge,
	}
	if len(cfg.AllowOrigins) == 1 && cfg.AllowOrigins[0] == "*" {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowOrigins
		c.AllowCredentials = true
	}
	if c.MaxAge == 0 {
		c.MaxAge = 12 * time.Hour
	}
	return cors.New(c)
}

// RequestID adds a unique request ID to each request and its logger context
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Writer.Header().Set(RequestIDKey, requestID)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// GetRequestID returns the request ID assigned by RequestID
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

// Secure adds the standard security headers to responses
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}

// Timeout bounds the request context. Ledger transactions observe the
// deadline through their context.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
