package handlers

import (
	"github.com/gin-gonic/gin"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/core/types"
	"hornada/internal/domain/cash"
	"hornada/internal/infrastructure/http/v1/dto"
)

// CashHandler handles register session endpoints.
type CashHandler struct {
	*BaseHandler
	service *cash.Service
}

// NewCashHandler creates a cash handler.
func NewCashHandler(base *BaseHandler, service *cash.Service) *CashHandler {
	return &CashHandler{BaseHandler: base, service: service}
}

// OpenSession handles POST /cash/sessions
func (h *CashHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	start, err := types.NewMoneyFromString(req.StartAmount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid startAmount").WithDetail("field", "startAmount"))
		return
	}

	session, err := h.service.OpenSession(c.Request.Context(), start, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, session.ID.String())
}

// CloseSession handles POST /cash/sessions/close
func (h *CashHandler) CloseSession(c *gin.Context) {
	var req dto.CloseSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	declared, err := types.NewMoneyFromString(req.DeclaredEndAmount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid declaredEndAmount").WithDetail("field", "declaredEndAmount"))
		return
	}

	session, err := h.service.CloseSession(c.Request.Context(), declared, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, session)
}

// CurrentSession handles GET /cash/sessions/current
func (h *CashHandler) CurrentSession(c *gin.Context) {
	session, err := h.service.CurrentSession(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	if session == nil {
		h.Error(c, apperror.NewNotFound("open cash session", nil))
		return
	}
	h.OK(c, session)
}

// RecordMovement handles POST /cash/movements
func (h *CashHandler) RecordMovement(c *gin.Context) {
	var req dto.CashMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	kind := cash.MovementKind(req.Kind)
	switch kind {
	case cash.MovementSale, cash.MovementExpense, cash.MovementWithdrawal, cash.MovementDeposit:
	default:
		h.Error(c, apperror.NewValidation("unknown movement kind").WithDetail("kind", req.Kind))
		return
	}

	amount, err := types.NewMoneyFromString(req.Amount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("field", "amount"))
		return
	}

	var orderID *id.ID
	if req.OrderID != "" {
		parsed, err := idFromString(req.OrderID, "orderId")
		if err != nil {
			h.Error(c, err)
			return
		}
		orderID = &parsed
	}

	mv, err := h.service.RecordMovement(c.Request.Context(), kind, amount, orderID, req.Description, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, mv)
}

// SessionMovements handles GET /cash/sessions/:id/movements
func (h *CashHandler) SessionMovements(c *gin.Context) {
	sessionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	movements, err := h.service.SessionMovements(c.Request.Context(), sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(movements))
}
