package middleware

import (
	"net/http"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity context keys and headers
const (
	TenantIDKey       = "tenant_id"
	OperatorIDKey     = "operator_id"
	TenantHeaderKey   = "X-Tenant-ID"
	OperatorHeaderKey = "X-Operator-ID"
)

// IdentityConfig holds configuration for identity resolution
type IdentityConfig struct {
	// HeaderEnabled accepts X-Tenant-ID / X-Operator-ID when no token was presented
	HeaderEnabled bool
	// SkipPaths are paths that don't require a tenant (e.g. health checks)
	SkipPaths []string
}

// IdentityMiddleware resolves the tenant and operator of a request.
// Extraction order: JWT claims > headers. A request without a tenant is rejected.
func IdentityMiddleware(cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if skipPath(c.Request.URL.Path, cfg.SkipPaths, nil) {
			c.Next()
			return
		}

		var tenantRaw, operatorRaw string
		if claims := GetJWTClaims(c); claims != nil {
			tenantRaw, operatorRaw = claims.TenantID, claims.OperatorID
		} else if cfg.HeaderEnabled {
			tenantRaw = c.GetHeader(TenantHeaderKey)
			operatorRaw = c.GetHeader(OperatorHeaderKey)
		}

		if tenantRaw == "" {
			respondUnauthorized(c, "Tenant identification required")
			return
		}
		tenantID, err := uuid.Parse(tenantRaw)
		if err != nil {
			respondUnauthorized(c, "Invalid tenant ID format")
			return
		}
		c.Set(TenantIDKey, tenantID)

		ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
		if operatorRaw != "" {
			operatorID, err := uuid.Parse(operatorRaw)
			if err != nil {
				respondUnauthorized(c, "Invalid operator ID format")
				return
			}
			c.Set(OperatorIDKey, operatorID)
			ctx = logger.WithOperatorID(ctx, operatorID.String())
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTenantID returns the resolved tenant, or uuid.Nil
func GetTenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(TenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetOperatorID returns the resolved operator, or nil when the caller is anonymous
func GetOperatorID(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(OperatorIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}

func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, message, GetRequestID(c)))
}
