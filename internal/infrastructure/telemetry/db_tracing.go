package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	SlowQueryThresh time.Duration
	DBSystem        string
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db plus callbacks that flag slow
// statements on the active span. Query variables are never recorded.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}

	if err := db.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(cfg.DBSystem),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateSpan(tx, cfg.SlowQueryThresh) }

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("ledger_timing:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("ledger_timing:after_create", after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("ledger_timing:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("ledger_timing:after_query", after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("ledger_timing:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("ledger_timing:after_update", after); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("ledger_timing:before_raw", before); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Register("ledger_timing:after_raw", after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
		zap.String("db_system", cfg.DBSystem),
	)
	return nil
}

func annotateSpan(tx *gorm.DB, slow time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, tx.Error.Error())
		span.RecordError(tx.Error)
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok && slow > 0 {
		if elapsed := time.Since(start); elapsed > slow {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
		}
	}
}
