package handler

import (
	"net/http"

	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// maxIdempotencyKeyLength matches the payment idempotency_key column
const maxIdempotencyKeyLength = 100

// PaymentHandler handles payment submission, reversal and preview
type PaymentHandler struct {
	BaseHandler
	payments *ledgerapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *ledgerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Submit godoc
// @Summary      Submit a payment
// @Description  Settles a raw payment against an invoice (advance first, then cash, excess to advance)
// @Description  or tops up the account advance when invoice_id is omitted.
// @Description  A repeated Idempotency-Key returns the first payment with 200 and replayed=true.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Client-chosen key"
// @Param        request body ledgerapp.SubmitPaymentRequest true "Payment"
// @Success      201 {object} dto.Response
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /payments [post]
func (h *PaymentHandler) Submit(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	key := c.GetHeader(middleware.IdempotencyKeyHeader)
	if len(key) > maxIdempotencyKeyLength {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Idempotency-Key is too long")
		return
	}

	var req ledgerapp.SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.IdempotencyKey = key
	req.OperatorID = getOperatorID(c)

	result, err := h.payments.Submit(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// Get godoc
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	payment, err := h.payments.Get(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// ListByAccount godoc
// @Summary      List payments of an account
// @Tags         payments
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response
// @Router       /accounts/{id}/payments [get]
func (h *PaymentHandler) ListByAccount(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var q ledgerapp.ListPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.payments.ListByAccount(c.Request.Context(), tenantID, accountID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

// Cancel godoc
// @Summary      Cancel a payment
// @Description  Restores invoice, advance and debt balances. INSUFFICIENT_BALANCE when the excess was already spent.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body ledgerapp.ReversePaymentRequest false "Reason"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /payments/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	h.reverse(c, false)
}

// Refund godoc
// @Summary      Refund a payment
// @Description  Same balance effect as cancel; the payment ends in refunded status
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body ledgerapp.ReversePaymentRequest false "Reason"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	h.reverse(c, true)
}

func (h *PaymentHandler) reverse(c *gin.Context, refund bool) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.ReversePaymentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.OperatorID = getOperatorID(c)

	var (
		result *ledgerapp.SettlementResponse
		err    error
	)
	if refund {
		result, err = h.payments.Refund(c.Request.Context(), tenantID, paymentID, req)
	} else {
		result, err = h.payments.Cancel(c.Request.Context(), tenantID, paymentID, req)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Preview godoc
// @Summary      Preview a payment
// @Description  Read-only split of a payment into advance applied, debt reduction and excess.
// @Description  The debt comes from invoice_id (its remainder) or from debt_amount.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.PreviewRequest true "Preview"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /payments/preview [post]
func (h *PaymentHandler) Preview(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req ledgerapp.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	preview, err := h.payments.Preview(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}
