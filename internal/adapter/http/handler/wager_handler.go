package handler

import (
	"math"
	"strconv"
	"time"

	"wager-escrow/internal/adapter/http/dto"
	"wager-escrow/internal/adapter/http/middleware"
	"wager-escrow/internal/core/domain"
	"wager-escrow/internal/core/ports"
	"wager-escrow/pkg/apperror"
	"wager-escrow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WagerHandler exposes the wager lifecycle.
type WagerHandler struct {
	escrowSvc ports.EscrowService
}

// NewWagerHandler creates a new WagerHandler.
func NewWagerHandler(escrowSvc ports.EscrowService) *WagerHandler {
	return &WagerHandler{escrowSvc: escrowSvc}
}

// Open handles POST /api/v1/wagers.
func (h *WagerHandler) Open(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.OpenWagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	w, err := h.escrowSvc.Open(c.Request.Context(), actor, ports.OpenRequest{
		PlayerID:    actor.ID,
		EscrowID:    req.EscrowID,
		Nonce:       req.Nonce,
		WagerAmount: req.WagerAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toWagerResponse(w))
}

// Get handles GET /api/v1/wagers/:id.
func (h *WagerHandler) Get(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wager id"))
		return
	}

	w, err := h.escrowSvc.GetWager(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !actor.IsAuthority() && w.PlayerID != actor.ID {
		response.Error(c, apperror.ErrNotFound("wager"))
		return
	}

	response.OK(c, toWagerResponse(w))
}

// List handles GET /api/v1/wagers. Players only ever see their own wagers.
func (h *WagerHandler) List(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.WagerListParams{
		PlayerID: c.Query("player"),
		Page:     page,
		PageSize: pageSize,
	}
	if !actor.IsAuthority() {
		params.PlayerID = actor.ID
	}
	if o := c.Query("outcome"); o != "" {
		outcome := domain.WagerOutcome(o)
		switch outcome {
		case domain.WagerOutcomeOpen, domain.WagerOutcomeSettled, domain.WagerOutcomeCancelled:
			params.Outcome = &outcome
		default:
			response.Error(c, apperror.Validation("outcome must be OPEN, SETTLED or CANCELLED"))
			return
		}
	}

	wagers, total, err := h.escrowSvc.ListWagers(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.WagerResponse, 0, len(wagers))
	for i := range wagers {
		items = append(items, toWagerResponse(&wagers[i]))
	}

	response.OK(c, dto.WagerListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	})
}

// Settle handles POST /api/v1/wagers/:id/settle.
func (h *WagerHandler) Settle(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wager id"))
		return
	}

	var req dto.SettleWagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	res, err := h.escrowSvc.Settle(c.Request.Context(), actor, ports.SettleRequest{
		WagerID:      id,
		EscrowID:     req.EscrowID,
		Winner:       req.Winner,
		Admin:        req.Admin,
		WinnerAmount: req.WinnerAmount,
		AdminAmount:  req.AdminAmount,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.SettleResponse{
		Wager:        toWagerResponse(res.Wager),
		Winner:       res.Winner,
		WinnerAmount: res.WinnerAmount,
		Admin:        res.Admin,
		AdminAmount:  res.AdminAmount,
		Residual:     res.Residual,
	})
}

// Cancel handles POST /api/v1/wagers/:id/cancel.
func (h *WagerHandler) Cancel(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid wager id"))
		return
	}

	var req dto.CancelWagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	res, err := h.escrowSvc.Cancel(c.Request.Context(), actor, ports.CancelRequest{
		WagerID:  id,
		EscrowID: req.EscrowID,
		Player:   req.Player,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.CancelResponse{
		Wager:     toWagerResponse(res.Wager),
		Recipient: res.Recipient,
		Refunded:  res.Refunded,
	})
}

func toWagerResponse(w *domain.Wager) dto.WagerResponse {
	resp := dto.WagerResponse{
		ID:          w.ID.String(),
		PlayerID:    w.PlayerID,
		EscrowID:    w.EscrowID,
		WagerAmount: w.WagerAmount,
		Nonce:       w.Nonce,
		Settled:     w.Settled,
		Outcome:     string(w.Outcome),
		CreatedAt:   w.CreatedAt.Format(time.RFC3339),
	}
	if w.SettledAt != nil {
		s := w.SettledAt.Format(time.RFC3339)
		resp.SettledAt = &s
	}
	return resp
}
