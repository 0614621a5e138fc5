package handler

import (
	"context"
	"net/http"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

type debtChangeFunc func(ctx context.Context, tenantID, accountID uuid.UUID, req ledgerapp.DebtChangeRequest) (*ledgerapp.AdjustmentResponse, error)

// bindOptionalJSON binds a JSON body that may be omitted entirely
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return c.ShouldBindWith(obj, emptyBody{})
	}
	return c.ShouldBindJSON(obj)
}

// emptyBody validates obj without decoding anything
type emptyBody struct{}

func (emptyBody) Name() string { return "empty" }

func (emptyBody) Bind(_ *http.Request, obj any) error {
	return binding.Validator.ValidateStruct(obj)
}
