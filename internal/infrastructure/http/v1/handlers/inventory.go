package handlers

import (
	"github.com/gin-gonic/gin"

	"hornada/internal/core/apperror"
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/ledger"
	"hornada/internal/infrastructure/http/v1/dto"
)

// InventoryHandler handles raw material catalog and stock ledger endpoints.
type InventoryHandler struct {
	*BaseHandler
	materials *material.Service
	ledger    *ledger.Service
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(base *BaseHandler, materials *material.Service, ledgerSvc *ledger.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		materials:   materials,
		ledger:      ledgerSvc,
	}
}

// CreateMaterial handles POST /inventory/materials
func (h *InventoryHandler) CreateMaterial(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cost := types.ZeroMoney()
	if req.CostPerUnit != "" {
		parsed, err := types.NewMoneyFromString(req.CostPerUnit)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid costPerUnit").WithDetail("field", "costPerUnit"))
			return
		}
		cost = parsed
	}

	m := material.NewRawMaterial(req.Name, req.Unit, cost, types.NewQuantityFromFloat64(req.MinimumStock))
	m.Category = req.Category
	m.Supplier = req.Supplier

	if err := h.materials.Create(c.Request.Context(), m); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, m.ID.String())
}

// UpdateMaterial handles PUT /inventory/materials/:id
func (h *InventoryHandler) UpdateMaterial(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	m, err := h.materials.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	m.Name = req.Name
	m.Category = req.Category
	m.Unit = req.Unit
	m.Supplier = req.Supplier
	m.MinimumStock = types.NewQuantityFromFloat64(req.MinimumStock)
	if req.CostPerUnit != "" {
		cost, err := types.NewMoneyFromString(req.CostPerUnit)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid costPerUnit").WithDetail("field", "costPerUnit"))
			return
		}
		m.CostPerUnit = cost
	}

	if err := h.materials.Update(ctx, m); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMaterial(m))
}

// GetMaterial handles GET /inventory/materials/:id
func (h *InventoryHandler) GetMaterial(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.materials.GetByID(c.Request.Context(), materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromMaterial(m))
}

// ListMaterials handles GET /inventory/materials
func (h *InventoryHandler) ListMaterials(c *gin.Context) {
	filter := material.ListFilter{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Status:   material.StockStatus(c.Query("status")),
		Limit:    h.ParseIntQuery(c, "limit", 100),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}

	items, err := h.materials.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.MaterialResponse, len(items))
	for i, m := range items {
		out[i] = dto.FromMaterial(m)
	}
	h.OK(c, dto.NewListResponse(out))
}

// RecordMovement handles POST /inventory/materials/:id/movements
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}

	mv, err := h.ledger.RecordMovement(
		c.Request.Context(),
		materialID,
		types.NewQuantityFromFloat64(req.Delta),
		ledger.Reason(req.Reason),
		h.Actor(c),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.MovementResponse{Movement: mv})
}

// GetStock handles GET /inventory/materials/:id/stock
func (h *InventoryHandler) GetStock(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	stock, err := h.ledger.GetStock(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	available, err := h.ledger.Available(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockResponse{
		MaterialID: materialID.String(),
		Stock:      stock,
		Available:  available,
	})
}

// GetMovements handles GET /inventory/materials/:id/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	materialID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	movements, err := h.ledger.GetMovements(
		c.Request.Context(),
		materialID,
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0),
	)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.MovementResponse, len(movements))
	for i, mv := range movements {
		out[i] = dto.MovementResponse{Movement: mv}
	}
	h.OK(c, dto.NewListResponse(out))
}
