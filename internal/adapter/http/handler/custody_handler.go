package handler

import (
	"wager-escrow/internal/adapter/http/dto"
	"wager-escrow/internal/adapter/http/middleware"
	"wager-escrow/internal/core/ports"
	"wager-escrow/pkg/apperror"
	"wager-escrow/pkg/response"

	"github.com/gin-gonic/gin"
)

// CustodyHandler handles custody funding and balance endpoints.
type CustodyHandler struct {
	custodySvc ports.CustodyService
}

// NewCustodyHandler creates a new CustodyHandler.
func NewCustodyHandler(custodySvc ports.CustodyService) *CustodyHandler {
	return &CustodyHandler{custodySvc: custodySvc}
}

// Deposit handles POST /api/v1/custody/:id/deposit.
func (h *CustodyHandler) Deposit(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	holder := c.Param("id")
	if !dto.IsSafeID(holder) {
		response.Error(c, apperror.Validation("invalid custody id"))
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	bal, err := h.custodySvc.Deposit(c.Request.Context(), actor, holder, req.Amount)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{Holder: holder, Balance: bal})
}

// Balance handles GET /api/v1/custody/:id/balance.
func (h *CustodyHandler) Balance(c *gin.Context) {
	holder := c.Param("id")
	if !dto.IsSafeID(holder) {
		response.Error(c, apperror.Validation("invalid custody id"))
		return
	}

	bal, err := h.custodySvc.Balance(c.Request.Context(), holder)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{Holder: holder, Balance: bal})
}
