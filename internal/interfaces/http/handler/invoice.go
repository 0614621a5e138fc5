package handler

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices *ledgerapp.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *ledgerapp.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// Create godoc
// @Summary      Issue an invoice
// @Description  Credit invoices accrue their remainder onto account debt when debt sync is on
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.CreatedBy = getOperatorID(c)

	invoice, err := h.invoices.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// Get godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoices.Get(c.Request.Context(), tenantID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// ListByAccount godoc
// @Summary      List invoices of an account
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        status query string false "unpaid, partial or paid"
// @Success      200 {object} dto.Response
// @Router       /accounts/{id}/invoices [get]
func (h *InvoiceHandler) ListByAccount(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var q ledgerapp.ListInvoicesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.invoices.ListByAccount(c.Request.Context(), tenantID, accountID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}
