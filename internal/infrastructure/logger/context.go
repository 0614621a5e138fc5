package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey         contextKey = "logger"
	requestIDKey      contextKey = "request_id"
	tenantIDKey       contextKey = "tenant_id"
	operatorIDKey     contextKey = "operator_id"
	idempotencyKeyKey contextKey = "idempotency_key"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorIDKey, operatorID)
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyKey, key)
}

func GetRequestID(ctx context.Context) string      { return stringValue(ctx, requestIDKey) }
func GetTenantID(ctx context.Context) string       { return stringValue(ctx, tenantIDKey) }
func GetOperatorID(ctx context.Context) string     { return stringValue(ctx, operatorIDKey) }
func GetIdempotencyKey(ctx context.Context) string { return stringValue(ctx, idempotencyKeyKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// L returns the context logger enriched with trace, request, tenant, operator
// and idempotency fields when present.
//
//	logger.L(ctx).Info("payment recorded", logger.PaymentID(p.ID))
func L(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)

	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		l = l.With(
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}

	fields := make([]zap.Field, 0, 4)
	for _, key := range []contextKey{requestIDKey, tenantIDKey, operatorIDKey, idempotencyKeyKey} {
		if v := stringValue(ctx, key); v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}
	if len(fields) > 0 {
		l = l.With(fields...)
	}
	return l
}

// Or is L with fallback used when ctx carries no logger
func Or(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if _, ok := ctx.Value(loggerKey).(*zap.Logger); !ok && fallback != nil {
		ctx = WithContext(ctx, fallback)
	}
	return L(ctx)
}
