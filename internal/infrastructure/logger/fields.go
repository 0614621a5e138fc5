package logger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger field helpers keep key names consistent across services and handlers.

func AccountID(id uuid.UUID) zap.Field { return zap.String("account_id", id.String()) }

func InvoiceID(id uuid.UUID) zap.Field { return zap.String("invoice_id", id.String()) }

func PaymentID(id uuid.UUID) zap.Field { return zap.String("payment_id", id.String()) }

func Currency(c string) zap.Field { return zap.String("currency", c) }

// Amount logs a decimal as its exact string form
func Amount(key string, d decimal.Decimal) zap.Field { return zap.String(key, d.String()) }
