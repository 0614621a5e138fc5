package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// memoryExporter keeps exported bodies and severities
type memoryExporter struct {
	mu       sync.Mutex
	bodies   []string
	severity []otellog.Severity
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.bodies = append(e.bodies, r.Body().AsString())
		e.severity = append(e.severity, r.Severity())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func TestLoggerProvider_Disabled(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())

	log := zap.NewNop()
	assert.Same(t, log, lp.Bridge(log, "ledger", zapcore.InfoLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLoggerProvider_BridgeTeesRecords(t *testing.T) {
	exporter := &memoryExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter))),
		logger:   zap.NewNop(),
	}
	require.True(t, lp.IsEnabled())

	core, local := observer.New(zapcore.DebugLevel)
	log := lp.Bridge(zap.New(core), "ledger", zapcore.InfoLevel)

	log.Debug("Row lock acquired")
	log.With(zap.String("account_id", "a-1")).Info("Payment settled")
	log.Warn("Payment rejected")

	assert.Equal(t, 3, local.Len(), "local output keeps every level")
	exporter.mu.Lock()
	defer exporter.mu.Unlock()
	assert.Equal(t, []string{"Payment settled", "Payment rejected"}, exporter.bodies)
	assert.Equal(t, []otellog.Severity{otellog.SeverityInfo, otellog.SeverityWarn}, exporter.severity)

	assert.NoError(t, lp.Shutdown(context.Background()))
}
