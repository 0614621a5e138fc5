package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/erp/ledger/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func boolPtr(b bool) *bool { return &b }

func TestPaymentService_SettlementFlow(t *testing.T) {
	f := syncedFixture(t)
	a := f.customer(t, "C-001")
	inv1 := f.creditInvoice(t, a.ID, "INV-1", 100000)
	assertDec(t, dec(100000), f.balance(t, a.ID, valueobject.IQD).Debt)

	t.Run("partial payment reduces invoice and account debt", func(t *testing.T) {
		res, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: a.ID, InvoiceID: &inv1.ID, Amount: dec(40000)})
		require.NoError(t, err)
		assertDec(t, dec(0), res.Payment.AdvanceUsed)
		assertDec(t, dec(40000), res.Payment.DebtReduction)
		assertDec(t, dec(0), res.Payment.ExcessAmount)
		assertDec(t, dec(40000), res.Payment.DebtSettled)
		assert.Equal(t, valueobject.IQD, res.Payment.Currency)
		assert.Equal(t, string(ledger.PaymentMethodCash), res.Payment.Method)
		require.NotNil(t, res.Invoice)
		assert.Equal(t, string(ledger.InvoiceStatusPartial), res.Invoice.Status)
		assertDec(t, dec(60000), res.Invoice.RemainingAmount)
		assertDec(t, dec(60000), f.balance(t, a.ID, valueobject.IQD).Debt)
	})

	t.Run("overpayment settles the invoice and becomes advance", func(t *testing.T) {
		f.events.reset()
		res, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: a.ID, InvoiceID: &inv1.ID, Amount: dec(70000)})
		require.NoError(t, err)
		assertDec(t, dec(60000), res.Payment.DebtReduction)
		assertDec(t, dec(10000), res.Payment.ExcessAmount)
		assert.Equal(t, string(ledger.InvoiceStatusPaid), res.Invoice.Status)

		b := f.balance(t, a.ID, valueobject.IQD)
		assertDec(t, dec(0), b.Debt)
		assertDec(t, dec(10000), b.Advance)
		assertDec(t, dec(-10000), b.Net)
		assert.Contains(t, f.events.types(), ledger.EventTypePaymentRecorded)
		assert.Contains(t, f.events.types(), ledger.EventTypeInvoiceSettled)
	})

	t.Run("existing advance is consumed first", func(t *testing.T) {
		inv2 := f.creditInvoice(t, a.ID, "INV-2", 50000)
		res, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: a.ID, InvoiceID: &inv2.ID, Amount: dec(20000)})
		require.NoError(t, err)
		assertDec(t, dec(10000), res.Payment.AdvanceUsed)
		assertDec(t, dec(10000), res.Payment.DebtReduction)
		assertDec(t, dec(0), res.Payment.ExcessAmount)
		assertDec(t, dec(30000), res.Invoice.RemainingAmount)

		b := f.balance(t, a.ID, valueobject.IQD)
		assertDec(t, dec(0), b.Advance)
		assertDec(t, dec(30000), b.Debt)
	})

	t.Run("payments are listed per account", func(t *testing.T) {
		page, err := f.svc.Payments.ListByAccount(f.ctx, testTenantID, a.ID, ListPaymentsQuery{})
		require.NoError(t, err)
		assert.EqualValues(t, 3, page.Total)
		for _, p := range page.Items {
			assertDec(t, p.Amount, p.AdvanceUsed.Add(p.DebtReduction).Add(p.ExcessAmount), "allocation must reconcile")
		}

		got, err := f.svc.Payments.Get(f.ctx, testTenantID, page.Items[0].ID)
		require.NoError(t, err)
		assert.Equal(t, page.Items[0].ID, got.ID)
	})
}

func TestPaymentService_ApplyAdvanceDisabled(t *testing.T) {
	f := syncedFixture(t)
	a := f.customer(t, "C-001")
	_, err := f.svc.Adjustments.Adjust(f.ctx, testTenantID, a.ID, AdjustBalanceRequest{Currency: "IQD", Amount: dec(5000), Type: "add"})
	require.NoError(t, err)
	inv := f.creditInvoice(t, a.ID, "INV-1", 10000)

	res, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{
		AccountID: a.ID, InvoiceID: &inv.ID, Amount: dec(4000), ApplyAdvance: boolPtr(false),
	})
	require.NoError(t, err)
	assertDec(t, dec(0), res.Payment.AdvanceUsed)
	assertDec(t, dec(4000), res.Payment.DebtReduction)

	b := f.balance(t, a.ID, valueobject.IQD)
	assertDec(t, dec(5000), b.Advance)
	assertDec(t, dec(6000), b.Debt)
}

func TestPaymentService_TopUp(t *testing.T) {
	f := syncedFixture(t)
	a := f.customer(t, "C-001")

	res, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{
		AccountID: a.ID, Amount: decStr("150.50"), Currency: "USD", Method: "transfer", Reference: "TRX-9",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Invoice)
	assert.Nil(t, res.Payment.InvoiceID)
	assertDec(t, decStr("150.50"), res.Payment.ExcessAmount)
	assert.Equal(t, "TRX-9", res.Payment.Reference)
	assertDec(t, decStr("150.50"), f.balance(t, a.ID, valueobject.USD).Advance)
	assert.True(t, f.balance(t, a.ID, valueobject.IQD).Advance.IsZero())
}

func TestPaymentService_Rejections(t *testing.T) {
	f := syncedFixture(t)
	c := f.customer(t, "C-001")
	other := f.customer(t, "C-002")
	s := f.supplier(t, "S-001")
	inv := f.creditInvoice(t, c.ID, "INV-1", 5000)
	purchase, err := f.svc.Invoices.Create(f.ctx, testTenantID, CreateInvoiceRequest{
		AccountID: s.ID, Number: "PUR-1", Kind: "purchase", Terms: "credit", Currency: "IQD", TotalAmount: dec(1000),
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  SubmitPaymentRequest
		code string
	}{
		{"overpaying a supplier", SubmitPaymentRequest{AccountID: s.ID, InvoiceID: &purchase.ID, Amount: dec(1500)}, ledger.CodeAdvanceNotSupported},
		{"topping up a supplier", SubmitPaymentRequest{AccountID: s.ID, Amount: dec(100), Currency: "IQD"}, ledger.CodeAdvanceNotSupported},
		{"currency differs from invoice", SubmitPaymentRequest{AccountID: c.ID, InvoiceID: &inv.ID, Amount: dec(10), Currency: "USD"}, shared.CodeCurrencyMismatch},
		{"invoice of another account", SubmitPaymentRequest{AccountID: other.ID, InvoiceID: &inv.ID, Amount: dec(10)}, shared.CodeInvalidInput},
		{"no currency and no invoice", SubmitPaymentRequest{AccountID: c.ID, Amount: dec(10)}, shared.CodeInvalidInput},
		{"zero amount", SubmitPaymentRequest{AccountID: c.ID, InvoiceID: &inv.ID, Amount: dec(0)}, shared.CodeInvalidAmount},
		{"fractional dinars", SubmitPaymentRequest{AccountID: c.ID, InvoiceID: &inv.ID, Amount: decStr("0.5")}, shared.CodeInvalidAmount},
		{"unknown method", SubmitPaymentRequest{AccountID: c.ID, InvoiceID: &inv.ID, Amount: dec(10), Method: "barter"}, shared.CodeInvalidInput},
		{"unknown account", SubmitPaymentRequest{AccountID: uuid.New(), Amount: dec(10), Currency: "IQD"}, shared.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Payments.Submit(f.ctx, testTenantID, tt.req)
			assertCode(t, err, tt.code)
		})
	}

	// nothing above may have moved a balance
	assertDec(t, dec(1000), f.balance(t, s.ID, valueobject.IQD).Debt)
	assertDec(t, dec(5000), f.balance(t, c.ID, valueobject.IQD).Debt)
	got, err := f.svc.Invoices.Get(f.ctx, testTenantID, purchase.ID)
	require.NoError(t, err)
	assertDec(t, dec(1000), got.RemainingAmount)
}

func TestPaymentService_Idempotency(t *testing.T) {
	f := syncedFixture(t)
	a := f.customer(t, "C-001")
	inv := f.creditInvoice(t, a.ID, "INV-1", 5000)
	req := SubmitPaymentRequest{AccountID: a.ID, InvoiceID: &inv.ID, Amount: dec(1000), IdempotencyKey: "pay-1"}

	first, err := f.svc.Payments.Submit(f.ctx, testTenantID, req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	t.Run("same key replays the first payment", func(t *testing.T) {
		again, err := f.svc.Payments.Submit(f.ctx, testTenantID, req)
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.Equal(t, first.Payment.ID, again.Payment.ID)
		assertDec(t, dec(4000), f.balance(t, a.ID, valueobject.IQD).Debt)
	})

	t.Run("replays from the database once the cache forgot the key", func(t *testing.T) {
		require.NoError(t, f.store.Forget(f.ctx, testTenantID.String()+":pay-1"))
		again, err := f.svc.Payments.Submit(f.ctx, testTenantID, req)
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assert.Equal(t, first.Payment.ID, again.Payment.ID)
	})

	t.Run("same key with a different amount is rejected", func(t *testing.T) {
		other := req
		other.Amount = dec(2000)
		_, err := f.svc.Payments.Submit(f.ctx, testTenantID, other)
		assertCode(t, err, ledger.CodeDuplicateRequest)
	})

	t.Run("same key with a different advance choice or method is rejected", func(t *testing.T) {
		other := req
		other.ApplyAdvance = boolPtr(false)
		_, err := f.svc.Payments.Submit(f.ctx, testTenantID, other)
		assertCode(t, err, ledger.CodeDuplicateRequest)

		other = req
		other.Method = "transfer"
		_, err = f.svc.Payments.Submit(f.ctx, testTenantID, other)
		assertCode(t, err, ledger.CodeDuplicateRequest)
	})

	t.Run("same key with a different currency is rejected", func(t *testing.T) {
		topUp := SubmitPaymentRequest{AccountID: a.ID, Amount: dec(100), Currency: "IQD", IdempotencyKey: "top-1"}
		first, err := f.svc.Payments.Submit(f.ctx, testTenantID, topUp)
		require.NoError(t, err)
		assert.Equal(t, valueobject.IQD, first.Payment.Currency)

		topUp.Currency = "usd"
		_, err = f.svc.Payments.Submit(f.ctx, testTenantID, topUp)
		assertCode(t, err, ledger.CodeDuplicateRequest)
		assert.True(t, f.balance(t, a.ID, valueobject.USD).Advance.IsZero())

		topUp.Currency = "iqd"
		again, err := f.svc.Payments.Submit(f.ctx, testTenantID, topUp)
		require.NoError(t, err)
		assert.True(t, again.Replayed)
	})

	t.Run("key still in flight is rejected", func(t *testing.T) {
		ok, err := f.store.Remember(f.ctx, testTenantID.String()+":pay-2", pendingMarker, time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		inflight := req
		inflight.IdempotencyKey = "pay-2"
		_, err = f.svc.Payments.Submit(f.ctx, testTenantID, inflight)
		assertCode(t, err, ledger.CodeDuplicateRequest)
	})

	t.Run("failed submission releases the key", func(t *testing.T) {
		bad := SubmitPaymentRequest{AccountID: a.ID, InvoiceID: &inv.ID, Amount: dec(10), Currency: "USD", IdempotencyKey: "pay-3"}
		_, err := f.svc.Payments.Submit(f.ctx, testTenantID, bad)
		assertCode(t, err, shared.CodeCurrencyMismatch)

		_, found, err := f.store.Lookup(f.ctx, testTenantID.String()+":pay-3")
		require.NoError(t, err)
		assert.False(t, found)

		bad.Currency = ""
		_, err = f.svc.Payments.Submit(f.ctx, testTenantID, bad)
		require.NoError(t, err)
	})

	t.Run("keys are scoped per tenant", func(t *testing.T) {
		otherTenant := uuid.New()
		acc, err := f.svc.Accounts.Create(f.ctx, otherTenant, CreateAccountRequest{Code: "C-001", Name: "Elsewhere", Kind: "customer"})
		require.NoError(t, err)
		res, err := f.svc.Payments.Submit(f.ctx, otherTenant, SubmitPaymentRequest{
			AccountID: acc.ID, Amount: dec(1000), Currency: "IQD", IdempotencyKey: "pay-1",
		})
		require.NoError(t, err)
		assert.False(t, res.Replayed)
	})
}

func TestPaymentService_Reversal(t *testing.T) {
	t.Run("cancel restores invoice, debt and advance", func(t *testing.T) {
		f := syncedFixture(t)
		a := f.customer(t, "C-001")
		inv := f.creditInvoice(t, a.ID, "INV-1", 1000)
		paid, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: a.ID, InvoiceID: &inv.ID, Amount: dec(1500)})
		require.NoError(t, err)
		assertDec(t, dec(500), f.balance(t, a.ID, valueobject.IQD).Advance)

		f.events.reset()
		res, err := f.svc.Payments.Cancel(f.ctx, testTenantID, paid.Payment.ID, ReversePaymentRequest{Reason: "entered twice"})
		require.NoError(t, err)
		assert.Equal(t, string(ledger.PaymentStatusCancelled), res.Payment.Status)
		assert.Equal(t, "entered twice", res.Payment.ReverseReason)
		require.NotNil(t, res.Payment.ReversedAt)
		assert.Equal(t, string(ledger.InvoiceStatusUnpaid), res.Invoice.Status)
		assertDec(t, dec(1000), res.Invoice.RemainingAmount)

		b := f.balance(t, a.ID, valueobject.IQD)
		assertDec(t, dec(0), b.Advance)
		assertDec(t, dec(1000), b.Debt)
		assert.Contains(t, f.events.types(), ledger.EventTypePaymentReversed)

		_, err = f.svc.Payments.Refund(f.ctx, testTenantID, paid.Payment.ID, ReversePaymentRequest{})
		assertCode(t, err, shared.CodeInvalidState)
	})

	t.Run("cancel gives consumed advance back", func(t *testing.T) {
		f := syncedFixture(t)
		a := f.customer(t, "C-001")
		_, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: a.ID, Amount: dec(10000), Currency: "IQD"})
		require.NoError(t, err)
		inv := f.creditInvoice(t, a.ID, "INV-1", 30000)

		p, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: a.ID, InvoiceID: &inv.ID, Amount: dec(5000)})
		require.NoError(t, err)
		assertDec(t, dec(5000), p.Payment.AdvanceUsed)
		assertDec(t, dec(25000), f.balance(t, a.ID, valueobject.IQD).Debt)

		_, err = f.svc.Payments.Cancel(f.ctx, testTenantID, p.Payment.ID, ReversePaymentRequest{})
		require.NoError(t, err)
		b := f.balance(t, a.ID, valueobject.IQD)
		assertDec(t, dec(10000), b.Advance)
		assertDec(t, dec(30000), b.Debt)
	})

	t.Run("refund fails once the credit was spent", func(t *testing.T) {
		f := syncedFixture(t)
		a := f.customer(t, "C-001")
		topUp, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: a.ID, Amount: dec(500), Currency: "IQD"})
		require.NoError(t, err)
		_, err = f.svc.Adjustments.Adjust(f.ctx, testTenantID, a.ID, AdjustBalanceRequest{Currency: "IQD", Amount: dec(300), Type: "subtract"})
		require.NoError(t, err)

		_, err = f.svc.Payments.Refund(f.ctx, testTenantID, topUp.Payment.ID, ReversePaymentRequest{})
		assertCode(t, err, shared.CodeInsufficientBalance)

		got, err := f.svc.Payments.Get(f.ctx, testTenantID, topUp.Payment.ID)
		require.NoError(t, err)
		assert.Equal(t, string(ledger.PaymentStatusCompleted), got.Status)
		assertDec(t, dec(200), f.balance(t, a.ID, valueobject.IQD).Advance)
	})

	t.Run("unknown payment", func(t *testing.T) {
		f := syncedFixture(t)
		_, err := f.svc.Payments.Cancel(f.ctx, testTenantID, uuid.New(), ReversePaymentRequest{})
		assertCode(t, err, shared.CodeNotFound)
	})
}

func TestPaymentService_Preview(t *testing.T) {
	f := syncedFixture(t)
	a := f.customer(t, "C-001")
	inv := f.creditInvoice(t, a.ID, "INV-1", 5000)

	t.Run("explicit debt", func(t *testing.T) {
		debt := dec(100)
		p, err := f.svc.Payments.Preview(f.ctx, testTenantID, PreviewRequest{DebtAmount: &debt, PaymentAmount: dec(150)})
		require.NoError(t, err)
		assert.True(t, p.IsExcess)
		assertDec(t, dec(50), p.ExcessAmount)
		assertDec(t, dec(100), p.DebtCleared)
		assertDec(t, dec(0), p.RemainingDebt)
	})

	t.Run("invoice remainder", func(t *testing.T) {
		p, err := f.svc.Payments.Preview(f.ctx, testTenantID, PreviewRequest{InvoiceID: &inv.ID, PaymentAmount: dec(2000)})
		require.NoError(t, err)
		assert.False(t, p.IsExcess)
		assert.Equal(t, valueobject.IQD, p.Currency)
		assertDec(t, dec(3000), p.RemainingDebt)
		assertDec(t, dec(5000), f.balance(t, a.ID, valueobject.IQD).Debt, "preview must not touch balances")
	})

	t.Run("agrees with the settlement it previews", func(t *testing.T) {
		p, err := f.svc.Payments.Preview(f.ctx, testTenantID, PreviewRequest{InvoiceID: &inv.ID, PaymentAmount: dec(7000)})
		require.NoError(t, err)

		res, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{
			AccountID: a.ID, InvoiceID: &inv.ID, Amount: dec(7000), ApplyAdvance: boolPtr(false),
		})
		require.NoError(t, err)
		assertDec(t, p.DebtCleared, res.Payment.DebtReduction)
		assertDec(t, p.ExcessAmount, res.Payment.ExcessAmount)
		assertDec(t, p.RemainingDebt, res.Invoice.RemainingAmount)
	})

	t.Run("rejections", func(t *testing.T) {
		negative := dec(-1)
		_, err := f.svc.Payments.Preview(f.ctx, testTenantID, PreviewRequest{DebtAmount: &negative, PaymentAmount: dec(1)})
		assertCode(t, err, shared.CodeInvalidAmount)

		_, err = f.svc.Payments.Preview(f.ctx, testTenantID, PreviewRequest{PaymentAmount: dec(1)})
		assertCode(t, err, shared.CodeInvalidInput)

		_, err = f.svc.Payments.Preview(f.ctx, testTenantID, PreviewRequest{InvoiceID: &inv.ID, PaymentAmount: dec(1), Currency: "USD"})
		assertCode(t, err, shared.CodeCurrencyMismatch)

		debt := dec(10)
		_, err = f.svc.Payments.Preview(f.ctx, testTenantID, PreviewRequest{DebtAmount: &debt, PaymentAmount: dec(0)})
		assertCode(t, err, shared.CodeInvalidAmount)
	})
}

// ttlStore records the TTL each value was stored with
type ttlStore struct {
	shared.IdempotencyStore
	mu   sync.Mutex
	ttls map[string]time.Duration
}

func (s *ttlStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	s.ttls[value] = ttl
	s.mu.Unlock()
	return s.IdempotencyStore.Remember(ctx, key, value, ttl)
}

func (s *ttlStore) ttl(value string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ttls[value]
}

// panickingPublisher fails hard once a payment has been committed
type panickingPublisher struct{}

func (panickingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	for _, e := range events {
		if e.EventType() == ledger.EventTypePaymentRecorded {
			panic("publisher down")
		}
	}
	return nil
}

func TestPaymentService_IdempotencyClaim(t *testing.T) {
	t.Run("claim lives for the pending TTL, the payment id for the full TTL", func(t *testing.T) {
		recorded := &ttlStore{ttls: map[string]time.Duration{}}
		f := newFixtureWith(t, fixtureConfig{
			opts: Options{SyncAccountDebt: true, PendingTTL: 2 * time.Second, IdempotencyTTL: time.Hour},
			wrapStore: func(s shared.IdempotencyStore) shared.IdempotencyStore {
				recorded.IdempotencyStore = s
				return recorded
			},
		})
		a := f.customer(t, "C-001")

		res, err := f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{
			AccountID: a.ID, Amount: dec(100), Currency: "IQD", IdempotencyKey: "k1",
		})
		require.NoError(t, err)
		assert.Equal(t, 2*time.Second, recorded.ttl(pendingMarker))
		assert.Equal(t, time.Hour, recorded.ttl(res.Payment.ID.String()))
	})

	t.Run("pending TTL never exceeds the key TTL", func(t *testing.T) {
		opts := Options{PendingTTL: time.Hour, IdempotencyTTL: time.Minute}.withDefaults()
		assert.Equal(t, time.Minute, opts.PendingTTL)
		assert.Equal(t, time.Minute, Options{}.withDefaults().PendingTTL)
	})

	t.Run("a claim left by a crashed request expires", func(t *testing.T) {
		f := newFixture(t, Options{SyncAccountDebt: true, PendingTTL: 50 * time.Millisecond})
		a := f.customer(t, "C-001")
		ok, err := f.store.Remember(f.ctx, testTenantID.String()+":k1", pendingMarker, 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		req := SubmitPaymentRequest{AccountID: a.ID, Amount: dec(100), Currency: "IQD", IdempotencyKey: "k1"}
		_, err = f.svc.Payments.Submit(f.ctx, testTenantID, req)
		assertCode(t, err, ledger.CodeDuplicateRequest)

		assert.Eventually(t, func() bool {
			_, err := f.svc.Payments.Submit(f.ctx, testTenantID, req)
			return err == nil
		}, 2*time.Second, 20*time.Millisecond)
		assertDec(t, dec(100), f.balance(t, a.ID, valueobject.IQD).Advance)
	})

	t.Run("a panic after commit still releases the claim", func(t *testing.T) {
		f := newFixtureWith(t, fixtureConfig{opts: Options{SyncAccountDebt: true}, publisher: panickingPublisher{}})
		a := f.customer(t, "C-001")
		req := SubmitPaymentRequest{AccountID: a.ID, Amount: dec(100), Currency: "IQD", IdempotencyKey: "k1"}

		require.Panics(t, func() { _, _ = f.svc.Payments.Submit(f.ctx, testTenantID, req) })

		_, found, err := f.store.Lookup(f.ctx, testTenantID.String()+":k1")
		require.NoError(t, err)
		assert.False(t, found)

		again, err := f.svc.Payments.Submit(f.ctx, testTenantID, req)
		require.NoError(t, err)
		assert.True(t, again.Replayed)
		assertDec(t, dec(100), f.balance(t, a.ID, valueobject.IQD).Advance)
	})
}

func TestPaymentService_RejectedSettlementMetric(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	metrics, err := telemetry.NewLedgerMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)
	f := newFixtureWith(t, fixtureConfig{opts: Options{SyncAccountDebt: true}, metrics: metrics})

	s := f.supplier(t, "S-001")
	purchase, err := f.svc.Invoices.Create(f.ctx, testTenantID, CreateInvoiceRequest{
		AccountID: s.ID, Number: "PUR-1", Kind: "purchase", Terms: "credit", Currency: "USD", TotalAmount: dec(10),
	})
	require.NoError(t, err)

	// the currency comes from the invoice; overpaying a supplier is rejected
	_, err = f.svc.Payments.Submit(f.ctx, testTenantID, SubmitPaymentRequest{AccountID: s.ID, InvoiceID: &purchase.ID, Amount: dec(20)})
	assertCode(t, err, ledger.CodeAdvanceNotSupported)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(f.ctx, &rm))
	var labels []string
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "ledger_settlements_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				cur, _ := dp.Attributes.Value(telemetry.AttrCurrency)
				labels = append(labels, cur.AsString())
			}
		}
	}
	assert.Equal(t, []string{"USD"}, labels)
}
