package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerAPI_SettlementFlow(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})

	accountID := f.customer("C-001")
	invoiceID := f.creditInvoice(accountID, "INV-001", "sale", "IQD", "100000")

	// credit invoice accrues onto account debt
	resp := f.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/balances", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	debt, advance := balance(t, resp.Data["balances"], "IQD")
	assert.Equal(t, "100000", debt.String())
	assert.True(t, advance.IsZero())

	payment := map[string]any{"account_id": accountID, "invoice_id": invoiceID, "amount": "150000"}
	resp = f.do(http.MethodPost, "/api/v1/payments", payment, "Idempotency-Key", "till-7-0001")
	require.Equal(t, http.StatusCreated, resp.Code, "%+v", resp.Error)
	assert.Equal(t, false, resp.Data["replayed"])

	paid := resp.Data["payment"].(map[string]any)
	paymentID := paid["id"].(string)
	assertDec(t, "100000", paid["debt_reduction"])
	assertDec(t, "50000", paid["excess_amount"])
	assert.Equal(t, "cash", paid["method"])
	invoice := resp.Data["invoice"].(map[string]any)
	assert.Equal(t, "paid", invoice["status"])
	assertDec(t, "0", invoice["remaining_amount"])

	debt, advance = balance(t, resp.Data["balances"], "IQD")
	assert.True(t, debt.IsZero())
	assert.Equal(t, "50000", advance.String())

	// the same key replays instead of settling twice
	resp = f.do(http.MethodPost, "/api/v1/payments", payment, "Idempotency-Key", "till-7-0001")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, resp.Data["replayed"])
	assert.Equal(t, paymentID, resp.Data["payment"].(map[string]any)["id"])

	// reusing the key for another amount is a conflict
	other := map[string]any{"account_id": accountID, "invoice_id": invoiceID, "amount": "1000"}
	resp = f.do(http.MethodPost, "/api/v1/payments", other, "Idempotency-Key", "till-7-0001")
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "DUPLICATE_REQUEST", resp.Error.Code)

	resp = f.do(http.MethodGet, "/api/v1/payments/"+paymentID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "completed", resp.Data["status"])

	resp = f.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/payments", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, resp.List, 1)
	assert.EqualValues(t, 1, resp.Meta["total"])

	// cancelling restores the invoice and withdraws the excess
	resp = f.do(http.MethodPost, "/api/v1/payments/"+paymentID+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.Code, "%+v", resp.Error)
	assert.Equal(t, "cancelled", resp.Data["payment"].(map[string]any)["status"])
	debt, advance = balance(t, resp.Data["balances"], "IQD")
	assert.Equal(t, "100000", debt.String())
	assert.True(t, advance.IsZero())

	resp = f.do(http.MethodPost, "/api/v1/payments/"+paymentID+"/refund", map[string]any{"reason": "again"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
}

func TestLedgerAPI_TopUpAndPreview(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	accountID := f.customer("C-002")

	resp := f.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"account_id": accountID, "amount": "25.50", "currency": "USD", "method": "transfer",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "%+v", resp.Error)
	assert.Nil(t, resp.Data["invoice"])
	_, advance := balance(t, resp.Data["balances"], "USD")
	assert.Equal(t, "25.5", advance.String())

	resp = f.do(http.MethodPost, "/api/v1/payments/preview", map[string]any{
		"debt_amount": "100", "payment_amount": "130", "currency": "USD",
	})
	require.Equal(t, http.StatusOK, resp.Code, "%+v", resp.Error)
	assert.Equal(t, true, resp.Data["is_excess"])
	assertDec(t, "30", resp.Data["excess_amount"])
	assertDec(t, "100", resp.Data["debt_cleared"])
	assertDec(t, "0", resp.Data["remaining_debt"])
	assert.Equal(t, "USD", resp.Data["currency"])

	invoiceID := f.creditInvoice(accountID, "INV-USD", "sale", "USD", "80")
	resp = f.do(http.MethodPost, "/api/v1/payments/preview", map[string]any{
		"invoice_id": invoiceID, "payment_amount": "50",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, false, resp.Data["is_excess"])
	assertDec(t, "30", resp.Data["remaining_debt"])
}

func TestLedgerAPI_AdjustmentsAndOffset(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	accountID := f.customer("C-003")

	resp := f.do(http.MethodPost, "/api/v1/accounts/"+accountID+"/debt/increase", map[string]any{
		"currency": "IQD", "amount": "5000", "note": "opening balance",
	})
	require.Equal(t, http.StatusOK, resp.Code, "%+v", resp.Error)
	assert.Equal(t, "debt", resp.Data["ledger"])
	assertDec(t, "5000", resp.Data["after_balance"])

	adjusted := f.mustCreate("/api/v1/accounts/"+accountID+"/adjustments", map[string]any{
		"currency": "IQD", "amount": "2000", "type": "add", "note": "goodwill",
	})
	assert.Equal(t, "advance", adjusted["ledger"])
	adjustmentID := adjusted["id"].(string)

	resp = f.do(http.MethodGet, "/api/v1/adjustments/"+adjustmentID, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "goodwill", resp.Data["note"])

	resp = f.do(http.MethodPost, "/api/v1/accounts/"+accountID+"/offset", map[string]any{"currency": "IQD"})
	require.Equal(t, http.StatusOK, resp.Code, "%+v", resp.Error)
	assertDec(t, "2000", resp.Data["applied"])
	assert.Len(t, resp.Data["entries"], 2)
	debt, advance := balance(t, resp.Data["balances"], "IQD")
	assert.Equal(t, "3000", debt.String())
	assert.True(t, advance.IsZero())

	// the advance was consumed by the offset, so reversing the top-up has nothing to take back
	resp = f.do(http.MethodPost, "/api/v1/adjustments/"+adjustmentID+"/reverse", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "INSUFFICIENT_BALANCE", resp.Error.Code)

	resp = f.do(http.MethodGet, "/api/v1/accounts/"+accountID+"/adjustments?ledger=debt", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	for _, entry := range resp.List {
		assert.Equal(t, "debt", entry["ledger"])
	}
	assert.Len(t, resp.List, 2)
}

func TestLedgerAPI_ReverseAdjustmentOnce(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	accountID := f.customer("C-004")

	adjusted := f.mustCreate("/api/v1/accounts/"+accountID+"/adjustments", map[string]any{
		"currency": "USD", "amount": "10", "type": "add",
	})
	path := "/api/v1/adjustments/" + adjusted["id"].(string) + "/reverse"

	reversal := f.mustCreate(path, map[string]any{"note": "entered twice"})
	assert.Equal(t, adjusted["id"], reversal["reversal_of"])
	assert.Equal(t, "subtract", reversal["type"])

	resp := f.do(http.MethodPost, path, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "ALREADY_REVERSED", resp.Error.Code)
}

func TestLedgerAPI_Errors(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	customerID := f.customer("C-005")
	supplierID := f.supplier("S-001")
	purchaseID := f.creditInvoice(supplierID, "PO-001", "purchase", "IQD", "1000")

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown account", http.MethodGet, "/api/v1/accounts/" + uuid.NewString(), nil, http.StatusNotFound, "NOT_FOUND"},
		{"malformed id", http.MethodGet, "/api/v1/invoices/not-a-uuid", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"unsupported currency", http.MethodPost, "/api/v1/payments",
			map[string]any{"account_id": customerID, "amount": "10", "currency": "EUR"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"zero amount", http.MethodPost, "/api/v1/payments",
			map[string]any{"account_id": customerID, "amount": "0", "currency": "IQD"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"currency mismatch", http.MethodPost, "/api/v1/payments",
			map[string]any{"account_id": supplierID, "invoice_id": purchaseID, "amount": "10", "currency": "USD"}, http.StatusBadRequest, "CURRENCY_MISMATCH"},
		{"supplier overpayment", http.MethodPost, "/api/v1/payments",
			map[string]any{"account_id": supplierID, "invoice_id": purchaseID, "amount": "1500"}, http.StatusUnprocessableEntity, "ADVANCE_NOT_SUPPORTED"},
		{"debt below zero", http.MethodPost, "/api/v1/accounts/" + customerID + "/debt/decrease",
			map[string]any{"currency": "IQD", "amount": "1"}, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"},
		{"preview without debt", http.MethodPost, "/api/v1/payments/preview",
			map[string]any{"payment_amount": "10"}, http.StatusBadRequest, "INVALID_INPUT"},
		{"duplicate account code", http.MethodPost, "/api/v1/accounts",
			map[string]any{"code": "C-005", "name": "Again", "kind": "customer"}, http.StatusConflict, "ALREADY_EXISTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.code, resp.Error.Code, resp.Error.Message)
			assert.False(t, resp.Success)
		})
	}

	t.Run("missing tenant", func(t *testing.T) {
		delete(f.headers, "X-Tenant-ID")
		defer func() { f.headers["X-Tenant-ID"] = testTenant.String() }()

		resp := f.do(http.MethodGet, "/api/v1/accounts", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
	})
}

func TestLedgerAPI_RequiredTokens(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{jwtRequired: true})

	resp := f.do(http.MethodGet, "/api/v1/accounts", nil, "X-Tenant-ID", testTenant.String())
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	writer := "Bearer " + f.token(auth.PermissionLedgerRead, auth.PermissionLedgerWrite)
	resp = f.do(http.MethodPost, "/api/v1/accounts",
		map[string]any{"code": "C-100", "name": "Token", "kind": "customer"}, "Authorization", writer)
	require.Equal(t, http.StatusCreated, resp.Code, "%+v", resp.Error)
	accountID := resp.Data["id"].(string)

	resp = f.do(http.MethodPost, "/api/v1/accounts/"+accountID+"/adjustments",
		map[string]any{"currency": "IQD", "amount": "10", "type": "add"}, "Authorization", writer)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)

	reader := "Bearer " + f.token(auth.PermissionLedgerRead)
	resp = f.do(http.MethodGet, "/api/v1/accounts", nil, "Authorization", reader)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "C-100", resp.List[0]["code"])
}

func TestHealth(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})
	resp := f.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", resp.Data["status"])
	assert.Equal(t, "ok", resp.Data["checks"].(map[string]any)["database"])

	resp = f.do(http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	down := newAPIFixture(t, fixtureOptions{checks: map[string]handler.HealthCheck{
		"redis": func(context.Context) error { return errDown },
	}})
	resp = down.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Equal(t, "degraded", resp.Data["status"])
}

func TestSwaggerDocs(t *testing.T) {
	f := newAPIFixture(t, fixtureOptions{})

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Swagger  string                    `json:"swagger"`
		BasePath string                    `json:"basePath"`
		Paths    map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), rec.Body.String())
	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/api/v1", doc.BasePath)
	assert.Contains(t, doc.Paths["/payments"], "post")
	assert.Contains(t, doc.Paths["/accounts/{id}/offset"], "post")

	// every documented operation is served
	served := map[string]bool{}
	for _, r := range f.engine.Routes() {
		served[r.Method+" "+r.Path] = true
	}
	param := regexp.MustCompile(`\{(\w+)\}`)
	for path, ops := range doc.Paths {
		for method := range ops {
			route := strings.ToUpper(method) + " " + doc.BasePath + param.ReplaceAllString(path, ":$1")
			assert.True(t, served[route], "documented but not served: %s", route)
		}
	}
}
