package handler

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// AdjustmentHandler handles the balance audit trail, manual adjustments and offsets
type AdjustmentHandler struct {
	BaseHandler
	adjustments *ledgerapp.AdjustmentService
}

// NewAdjustmentHandler creates a new AdjustmentHandler
func NewAdjustmentHandler(adjustments *ledgerapp.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{adjustments: adjustments}
}

// Adjust godoc
// @Summary      Adjust a balance
// @Description  Adds to or subtracts from the advance (default) or debt ledger and records an audit entry
// @Tags         adjustments
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body ledgerapp.AdjustBalanceRequest true "Adjustment"
// @Success      201 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /accounts/{id}/adjustments [post]
func (h *AdjustmentHandler) Adjust(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.OperatorID = getOperatorID(c)

	entry, err := h.adjustments.Adjust(c.Request.Context(), tenantID, accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// List godoc
// @Summary      Audit trail of an account
// @Tags         adjustments
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        ledger query string false "advance or debt"
// @Success      200 {object} dto.Response
// @Router       /accounts/{id}/adjustments [get]
func (h *AdjustmentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var q ledgerapp.ListAdjustmentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.adjustments.List(c.Request.Context(), tenantID, accountID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

// Get godoc
// @Summary      Get an audit entry
// @Tags         adjustments
// @Produce      json
// @Param        id path string true "Adjustment ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /adjustments/{id} [get]
func (h *AdjustmentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	adjustmentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	entry, err := h.adjustments.Get(c.Request.Context(), tenantID, adjustmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Reverse godoc
// @Summary      Reverse an audit entry
// @Description  Appends the opposite entry. ALREADY_REVERSED on a second attempt.
// @Tags         adjustments
// @Accept       json
// @Produce      json
// @Param        id path string true "Adjustment ID" format(uuid)
// @Param        request body ledgerapp.ReverseAdjustmentRequest false "Note"
// @Success      201 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /adjustments/{id}/reverse [post]
func (h *AdjustmentHandler) Reverse(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	adjustmentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.ReverseAdjustmentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.OperatorID = getOperatorID(c)

	entry, err := h.adjustments.Reverse(c.Request.Context(), tenantID, adjustmentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// Offset godoc
// @Summary      Net advance against debt
// @Description  Consumes min(advance, debt) in one currency; a no-op when either side is zero
// @Tags         adjustments
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body ledgerapp.OffsetRequest true "Offset"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /accounts/{id}/offset [post]
func (h *AdjustmentHandler) Offset(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.OffsetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.OperatorID = getOperatorID(c)

	result, err := h.adjustments.Offset(c.Request.Context(), tenantID, accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
