// Package middleware provides HTTP middleware for the ledger API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// MaxRequestIDLength caps request IDs copied into span attributes
const MaxRequestIDLength = 128

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// Tracing returns OpenTelemetry tracing middleware.
// It wraps otelgin and, once the handler chain has run, adds the request,
// tenant and operator identifiers to the server span.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	baseMiddleware := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		// otelgin runs the rest of the chain inside this call
		baseMiddleware(c)

		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		if len(requestID) > MaxRequestIDLength {
			requestID = requestID[:MaxRequestIDLength]
		}
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if tenantID := GetTenantID(c); tenantID != uuid.Nil {
		span.SetAttributes(attribute.String("tenant_id", tenantID.String()))
	}
	if operatorID := GetOperatorID(c); operatorID != nil {
		span.SetAttributes(attribute.String("operator_id", operatorID.String()))
	}
}

// SpanErrorMarker marks spans with error status for 4xx/5xx responses.
// Place it after Tracing in the chain.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}
		message := "Client Error"
		if statusCode >= http.StatusInternalServerError {
			message = "Internal Server Error"
		}
		if len(c.Errors) > 0 {
			message = c.Errors.Last().Error()
		}
		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}
