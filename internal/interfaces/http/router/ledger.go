package router

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/infrastructure/auth"
	"github.com/erp/ledger/internal/interfaces/http/handler"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers of the ledger API
type Handlers struct {
	Accounts    *handler.AccountHandler
	Invoices    *handler.InvoiceHandler
	Payments    *handler.PaymentHandler
	Adjustments *handler.AdjustmentHandler
	System      *handler.SystemHandler
}

// NewHandlers wires the handlers to the ledger services
func NewHandlers(services *ledgerapp.Services, system *handler.SystemHandler) Handlers {
	return Handlers{
		Accounts:    handler.NewAccountHandler(services.Accounts),
		Invoices:    handler.NewInvoiceHandler(services.Invoices),
		Payments:    handler.NewPaymentHandler(services.Payments),
		Adjustments: handler.NewAdjustmentHandler(services.Adjustments),
		System:      system,
	}
}

// LedgerRoutes builds the /api/v1 route groups. Reads need ledger:read,
// invoices and payments ledger:write, direct balance changes ledger:adjust.
func LedgerRoutes(h Handlers, perm middleware.PermissionConfig) []RouteRegistrar {
	read := middleware.RequirePermission(perm, auth.PermissionLedgerRead)
	write := middleware.RequirePermission(perm, auth.PermissionLedgerWrite)
	adjust := middleware.RequirePermission(perm, auth.PermissionLedgerAdjust)

	accounts := NewDomainGroup("accounts", "/accounts").
		POST("", write, h.Accounts.Create).
		GET("", read, h.Accounts.List).
		GET("/:id", read, h.Accounts.Get).
		GET("/:id/balances", read, h.Accounts.Balances).
		POST("/:id/debt/increase", adjust, h.Accounts.IncreaseDebt).
		POST("/:id/debt/decrease", adjust, h.Accounts.DecreaseDebt).
		POST("/:id/offset", adjust, h.Adjustments.Offset).
		POST("/:id/adjustments", adjust, h.Adjustments.Adjust).
		GET("/:id/adjustments", read, h.Adjustments.List).
		GET("/:id/invoices", read, h.Invoices.ListByAccount).
		GET("/:id/payments", read, h.Payments.ListByAccount)

	adjustments := NewDomainGroup("adjustments", "/adjustments").
		GET("/:id", read, h.Adjustments.Get).
		POST("/:id/reverse", adjust, h.Adjustments.Reverse)

	invoices := NewDomainGroup("invoices", "/invoices").
		POST("", write, h.Invoices.Create).
		GET("/:id", read, h.Invoices.Get)

	payments := NewDomainGroup("payments", "/payments").
		POST("", write, h.Payments.Submit).
		POST("/preview", read, h.Payments.Preview).
		GET("/:id", read, h.Payments.Get).
		POST("/:id/cancel", write, h.Payments.Cancel).
		POST("/:id/refund", write, h.Payments.Refund)

	return []RouteRegistrar{accounts, adjustments, invoices, payments}
}
