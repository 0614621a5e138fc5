package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
var (
	AttrCurrency  = attribute.Key("currency")
	AttrOperation = attribute.Key("operation")
	AttrOutcome   = attribute.Key("outcome")
	AttrBucket    = attribute.Key("bucket")
)

// Allocation buckets reported by RecordSettlement.
const (
	BucketAdvance = "advance"
	BucketDebt    = "debt"
	BucketExcess  = "excess"
)

// LedgerMetrics holds the business instruments of the settlement engine.
type LedgerMetrics struct {
	settlements metric.Int64Counter
	allocated   metric.Float64Counter
	duration    metric.Float64Histogram
}

// NewLedgerMetrics registers the ledger instruments on meter.
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	settlements, err := meter.Int64Counter("ledger_settlements_total",
		metric.WithDescription("Settlements processed, by currency and outcome"),
		metric.WithUnit("{settlement}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create settlements counter: %w", err)
	}
	allocated, err := meter.Float64Counter("ledger_allocated_amount_total",
		metric.WithDescription("Settled amount by allocation bucket, in currency units"),
		metric.WithUnit("{currency_unit}"))
	if err != nil {
		return nil, fmt.Errorf("failed to create allocated counter: %w", err)
	}
	duration, err := meter.Float64Histogram("ledger_operation_duration_seconds",
		metric.WithDescription("Ledger use case latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(OperationDurationBuckets...))
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return &LedgerMetrics{settlements: settlements, allocated: allocated, duration: duration}, nil
}

// RecordSettlement counts one settlement. Amounts are reported as floats
// and are for dashboards only; the database holds the exact figures.
func (m *LedgerMetrics) RecordSettlement(ctx context.Context, currency string, advance, debt, excess decimal.Decimal) {
	if m == nil {
		return
	}
	cur := AttrCurrency.String(currency)
	m.settlements.Add(ctx, 1, metric.WithAttributes(cur, AttrOutcome.String("ok")))
	for bucket, amount := range map[string]decimal.Decimal{
		BucketAdvance: advance,
		BucketDebt:    debt,
		BucketExcess:  excess,
	} {
		if amount.IsPositive() {
			m.allocated.Add(ctx, amount.InexactFloat64(), metric.WithAttributes(cur, AttrBucket.String(bucket)))
		}
	}
}

// RecordRejectedSettlement counts a settlement that failed with the given error code.
func (m *LedgerMetrics) RecordRejectedSettlement(ctx context.Context, currency, code string) {
	if m == nil {
		return
	}
	m.settlements.Add(ctx, 1, metric.WithAttributes(AttrCurrency.String(currency), AttrOutcome.String(code)))
}

// ObserveOperation records the duration of a use case since start.
func (m *LedgerMetrics) ObserveOperation(ctx context.Context, operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.duration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(AttrOperation.String(operation), AttrOutcome.String(outcome)))
}
