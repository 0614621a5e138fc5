package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var testTenantID = uuid.MustParse("00000000-0000-0000-0000-0000000000bb")

// recorder captures every published event
type recorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (r *recorder) Handle(_ context.Context, e shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) EventTypes() []string { return nil }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

type fixture struct {
	ctx    context.Context
	svc    *Services
	store  *cache.InMemoryIdempotencyStore
	events *recorder
}

type fixtureConfig struct {
	opts      Options
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
	wrapStore func(shared.IdempotencyStore) shared.IdempotencyStore
}

func newFixture(t *testing.T, opts Options) *fixture {
	return newFixtureWith(t, fixtureConfig{opts: opts})
}

func newFixtureWith(t *testing.T, cfg fixtureConfig) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.NewSQLiteDatabase(":memory:", persistence.Options{LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := zaptest.NewLogger(t)
	bus := event.NewInMemoryEventBus(log)
	rec := &recorder{}
	bus.Subscribe(rec)
	require.NoError(t, bus.Start(ctx))

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	var publisher shared.EventPublisher = bus
	if cfg.publisher != nil {
		publisher = cfg.publisher
	}
	var idempotency shared.IdempotencyStore = store
	if cfg.wrapStore != nil {
		idempotency = cfg.wrapStore(store)
	}

	svc := NewServices(Dependencies{
		UnitOfWork:  persistence.NewUnitOfWork(db.DB, 0),
		Publisher:   publisher,
		Idempotency: idempotency,
		Metrics:     cfg.metrics,
		Logger:      log,
		Options:     cfg.opts,
	})
	return &fixture{ctx: ctx, svc: svc, store: store, events: rec}
}

func syncedFixture(t *testing.T) *fixture {
	return newFixture(t, Options{SyncAccountDebt: true})
}

func (f *fixture) customer(t *testing.T, code string) *AccountResponse {
	t.Helper()
	a, err := f.svc.Accounts.Create(f.ctx, testTenantID, CreateAccountRequest{Code: code, Name: "Customer " + code, Kind: "customer"})
	require.NoError(t, err)
	return a
}

func (f *fixture) supplier(t *testing.T, code string) *AccountResponse {
	t.Helper()
	a, err := f.svc.Accounts.Create(f.ctx, testTenantID, CreateAccountRequest{Code: code, Name: "Supplier " + code, Kind: "supplier"})
	require.NoError(t, err)
	return a
}

func (f *fixture) creditInvoice(t *testing.T, accountID uuid.UUID, number string, total int64) *InvoiceResponse {
	t.Helper()
	inv, err := f.svc.Invoices.Create(f.ctx, testTenantID, CreateInvoiceRequest{
		AccountID:   accountID,
		Number:      number,
		Kind:        "sale",
		Terms:       "credit",
		Currency:    "IQD",
		TotalAmount: decimal.NewFromInt(total),
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) balance(t *testing.T, accountID uuid.UUID, c valueobject.Currency) CurrencyBalanceResponse {
	t.Helper()
	b, err := f.svc.Accounts.Balances(f.ctx, testTenantID, accountID)
	require.NoError(t, err)
	for _, row := range b.Balances {
		if row.Currency == c {
			return row
		}
	}
	t.Fatalf("no %s balance row", c)
	return CurrencyBalanceResponse{}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func decStr(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want decimal.Decimal, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, want.Equal(got), append([]any{"want %s, got %s", want.String(), got.String()}, msgAndArgs...)...)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, shared.ErrorCode(err), "error: %v", err)
}

var _ shared.EventHandler = (*recorder)(nil)
