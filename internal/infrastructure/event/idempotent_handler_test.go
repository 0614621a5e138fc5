package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIdempotentHandler_SkipsRedelivery(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("X")
	h := NewIdempotentHandler(inner, store, time.Hour, zap.NewNop())

	ev := newTestEvent("X")
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), ev))
	require.NoError(t, h.Handle(context.Background(), newTestEvent("X")))

	assert.Equal(t, 2, inner.count())
	assert.Equal(t, IdempotencyStats{Processed: 2, Duplicate: 1}, h.Stats())
	assert.Equal(t, []string{"X"}, h.EventTypes())
}

func TestIdempotentHandler_FailureReleasesKey(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore()
	defer store.Close()
	inner := newTestHandler("X")
	inner.err = errors.New("downstream unavailable")
	h := NewIdempotentHandler(inner, store, time.Hour, zap.NewNop())

	ev := newTestEvent("X")
	assert.Error(t, h.Handle(context.Background(), ev))

	inner.err = nil
	require.NoError(t, h.Handle(context.Background(), ev))
	assert.Equal(t, 2, inner.count())
	assert.Equal(t, int64(1), h.Stats().Failed)
	assert.Equal(t, int64(1), h.Stats().Processed)
}

func TestLedgerActivityLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := NewLedgerActivityLogger(zap.New(core))

	acc, err := ledger.NewAccount(uuid.New(), "C-1", "Customer", ledger.AccountKindCustomer, nil)
	require.NoError(t, err)
	amount, err := valueobject.NewMoney(decimal.NewFromInt(25000), valueobject.IQD)
	require.NoError(t, err)
	p, err := ledger.NewPaymentRecord(acc.TenantID, acc.ID, nil, amount, ledger.PaymentMethodCash, ledger.Allocation{
		Currency:       valueobject.IQD,
		AdvanceApplied: decimal.Zero,
		DebtReduction:  decimal.Zero,
		ExcessAmount:   decimal.NewFromInt(25000),
		DebtSettled:    decimal.Zero,
	})
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), ledger.NewPaymentRecordedEvent(p)))
	require.NoError(t, h.Handle(context.Background(), ledger.NewAccountCreatedEvent(acc)))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Payment recorded", entries[0].Message)
	assert.Equal(t, "25000", entries[0].ContextMap()["excess"])
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Contains(t, h.EventTypes(), ledger.EventTypeDebtOffset)
}
