package handler

import (
	ledgerapp "github.com/erp/ledger/internal/application/ledger"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles account and direct debt endpoints
type AccountHandler struct {
	BaseHandler
	accounts *ledgerapp.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts *ledgerapp.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create godoc
// @Summary      Open an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body ledgerapp.CreateAccountRequest true "Account"
// @Success      201 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req ledgerapp.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.CreatedBy = getOperatorID(c)

	account, err := h.accounts.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Get godoc
// @Summary      Get an account with its balances
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	account, err := h.accounts.Get(c.Request.Context(), tenantID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// List godoc
// @Summary      List accounts
// @Tags         accounts
// @Produce      json
// @Param        kind query string false "customer or supplier"
// @Param        search query string false "Code or name fragment"
// @Param        page query int false "Page"
// @Param        page_size query int false "Page size"
// @Success      200 {object} dto.Response
// @Router       /accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var q ledgerapp.ListAccountsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.accounts.List(c.Request.Context(), tenantID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page(c, result)
}

// Balances godoc
// @Summary      Per-currency debt, advance and net balance
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /accounts/{id}/balances [get]
func (h *AccountHandler) Balances(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	balances, err := h.accounts.Balances(c.Request.Context(), tenantID, accountID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balances)
}

// IncreaseDebt godoc
// @Summary      Raise account debt
// @Description  Records an audited manual debt increase
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body ledgerapp.DebtChangeRequest true "Debt change"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Router       /accounts/{id}/debt/increase [post]
func (h *AccountHandler) IncreaseDebt(c *gin.Context) {
	h.changeDebt(c, h.accounts.IncreaseDebt)
}

// DecreaseDebt godoc
// @Summary      Lower account debt
// @Description  Fails with INSUFFICIENT_BALANCE when the debt is smaller than the amount
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body ledgerapp.DebtChangeRequest true "Debt change"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /accounts/{id}/debt/decrease [post]
func (h *AccountHandler) DecreaseDebt(c *gin.Context) {
	h.changeDebt(c, h.accounts.DecreaseDebt)
}

func (h *AccountHandler) changeDebt(c *gin.Context, apply debtChangeFunc) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	accountID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req ledgerapp.DebtChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	req.OperatorID = getOperatorID(c)

	entry, err := apply(c.Request.Context(), tenantID, accountID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}
