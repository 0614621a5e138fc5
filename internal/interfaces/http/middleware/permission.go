package middleware

import (
	"net/http"

	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for permission middleware
type PermissionConfig struct {
	// AllowAnonymous lets requests without token claims through. Used when
	// tokens are optional and identity comes from headers.
	AllowAnonymous bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// RequirePermission creates middleware that requires a specific permission
func RequirePermission(cfg PermissionConfig, permission string) gin.HandlerFunc {
	return RequireAnyPermission(cfg, permission)
}

// RequireAnyPermission creates middleware that requires any of the specified permissions
func RequireAnyPermission(cfg PermissionConfig, permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			if cfg.AllowAnonymous {
				c.Next()
				return
			}
			handlePermissionDenied(c, cfg, permissions, "No authentication claims found")
			return
		}

		for _, p := range permissions {
			if claims.HasPermission(p) {
				c.Next()
				return
			}
		}
		handlePermissionDenied(c, cfg, permissions, "Operator lacks required permission")
	}
}

func handlePermissionDenied(c *gin.Context, cfg PermissionConfig, required []string, reason string) {
	if cfg.Logger != nil {
		cfg.Logger.Warn("Permission denied",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Strings("required_any", required),
			zap.String("reason", reason),
		)
	}
	c.AbortWithStatusJSON(http.StatusForbidden,
		dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Permission denied", GetRequestID(c)))
}
