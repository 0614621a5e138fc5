package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/infrastructure/cache"
	"github.com/erp/ledger/internal/infrastructure/config"
	"github.com/erp/ledger/internal/infrastructure/event"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "router-test-secret-at-least-32-chars"

var testTenant = uuid.MustParse("00000000-0000-0000-0000-0000000000cc")

type apiFixture struct {
	t       *testing.T
	engine  *gin.Engine
	jwt     *auth.JWTService
	headers map[string]string
}

type fixtureOptions struct {
	jwtRequired bool
	checks      map[string]handler.HealthCheck
}

func newAPIFixture(t *testing.T, opts fixtureOptions) *apiFixture {
	t.Helper()
	ctx := context.Background()

	db, err := persistence.NewSQLiteDatabase(":memory:", persistence.Options{LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := zaptest.NewLogger(t)
	bus := event.NewInMemoryEventBus(log)
	require.NoError(t, bus.Start(ctx))
	t.Cleanup(func() { _ = bus.Stop(ctx) })

	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })

	services := ledgerapp.NewServices(ledgerapp.Dependencies{
		UnitOfWork:  persistence.NewUnitOfWork(db.DB, 0),
		Publisher:   bus,
		Idempotency: store,
		Logger:      log,
		Options:     ledgerapp.Options{SyncAccountDebt: true},
	})

	cfg := &config.Config{
		App: config.AppConfig{Name: "ledger", Env: "test"},
		JWT: config.JWTConfig{Secret: testSecret, Issuer: "ledger-test", Required: opts.jwtRequired},
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	checks := opts.checks
	if checks == nil {
		checks = map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
		}
	}
	system := handler.NewSystemHandler("ledger", "test", checks)

	engine, err := NewEngine(EngineConfig{Config: cfg, Logger: log, JWT: jwtService}, NewHandlers(services, system))
	require.NoError(t, err)

	f := &apiFixture{t: t, engine: engine, jwt: jwtService, headers: map[string]string{}}
	if !opts.jwtRequired {
		f.headers["X-Tenant-ID"] = testTenant.String()
	}
	return f
}

func (f *apiFixture) token(perms ...string) string {
	f.t.Helper()
	token, _, err := f.jwt.GenerateAccessToken(auth.TokenInput{
		TenantID:    testTenant,
		OperatorID:  uuid.New(),
		Username:    "cashier",
		Permissions: perms,
	})
	require.NoError(f.t, err)
	return token
}

type apiResponse struct {
	Code    int
	Success bool
	Data    map[string]any
	List    []map[string]any
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	Meta map[string]any
}

// do sends body as JSON with the fixture headers plus extra ones
func (f *apiFixture) do(method, path string, body any, extra ...string) apiResponse {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	for i := 0; i+1 < len(extra); i += 2 {
		req.Header.Set(extra[i], extra[i+1])
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   json.RawMessage `json:"error"`
		Meta    map[string]any  `json:"meta"`
	}
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())

	resp := apiResponse{Code: rec.Code, Success: raw.Success, Meta: raw.Meta}
	if len(raw.Data) > 0 && raw.Data[0] == '[' {
		require.NoError(f.t, json.Unmarshal(raw.Data, &resp.List))
	} else if len(raw.Data) > 0 {
		require.NoError(f.t, json.Unmarshal(raw.Data, &resp.Data))
	}
	if len(raw.Error) > 0 {
		require.NoError(f.t, json.Unmarshal(raw.Error, &resp.Error))
	}
	return resp
}

func (f *apiFixture) mustCreate(path string, body any) map[string]any {
	f.t.Helper()
	resp := f.do(http.MethodPost, path, body)
	require.Equal(f.t, http.StatusCreated, resp.Code, "%s: %+v", path, resp.Error)
	return resp.Data
}

func (f *apiFixture) customer(code string) string {
	return f.mustCreate("/api/v1/accounts", map[string]any{"code": code, "name": "Customer " + code, "kind": "customer"})["id"].(string)
}

func (f *apiFixture) supplier(code string) string {
	return f.mustCreate("/api/v1/accounts", map[string]any{"code": code, "name": "Supplier " + code, "kind": "supplier"})["id"].(string)
}

func (f *apiFixture) creditInvoice(accountID, number, kind, currency, total string) string {
	return f.mustCreate("/api/v1/invoices", map[string]any{
		"account_id":   accountID,
		"number":       number,
		"kind":         kind,
		"terms":        "credit",
		"currency":     currency,
		"total_amount": total,
	})["id"].(string)
}

// balance returns the debt and advance of one currency from a balances list
func balance(t *testing.T, rows any, currency string) (debt, advance decimal.Decimal) {
	t.Helper()
	list, ok := rows.([]any)
	require.True(t, ok, "balances is not a list")
	for _, r := range list {
		row := r.(map[string]any)
		if row["currency"] == currency {
			return dec(t, row["debt"]), dec(t, row["advance"])
		}
	}
	require.FailNow(t, "currency not found", currency)
	return
}

func dec(t *testing.T, v any) decimal.Decimal {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "decimal field is %T", v)
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func assertDec(t *testing.T, expected string, actual any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(dec(t, actual)), "expected %s, got %v", expected, actual)
}

var errDown = errors.New("connection refused")
