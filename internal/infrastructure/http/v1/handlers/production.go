package handlers

import (
	"github.com/gin-gonic/gin"

	"hornada/internal/domain/production"
	"hornada/internal/infrastructure/http/v1/dto"
)

// ProductionHandler handles production plan and batch endpoints.
type ProductionHandler struct {
	*BaseHandler
	service *production.Service
}

// NewProductionHandler creates a production handler.
func NewProductionHandler(base *BaseHandler, service *production.Service) *ProductionHandler {
	return &ProductionHandler{BaseHandler: base, service: service}
}

// CreateItem handles POST /production/items
func (h *ProductionHandler) CreateItem(c *gin.Context) {
	var req dto.CreatePlanItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := idFromString(req.ProductID, "productId")
	if err != nil {
		h.Error(c, err)
		return
	}

	item, err := h.service.CreateItem(c.Request.Context(), productID, req.Quantity, req.ScheduledDate)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item.ID.String())
}

// GetItem handles GET /production/items/:id
func (h *ProductionHandler) GetItem(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	item, err := h.service.GetItem(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// ListItems handles GET /production/items
func (h *ProductionHandler) ListItems(c *gin.Context) {
	filter := production.ItemListFilter{
		Status: production.ItemStatus(c.Query("status")),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if pStr := c.Query("productId"); pStr != "" {
		productID, err := idFromString(pStr, "productId")
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.ProductID = productID
	}
	if oStr := c.Query("orderId"); oStr != "" {
		orderID, err := idFromString(oStr, "orderId")
		if err != nil {
			h.Error(c, err)
			return
		}
		filter.OrderID = orderID
	}

	items, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// PatchItem handles PATCH /production/items/:id
// Merge-patch semantics: only fields present in the body change.
func (h *ProductionHandler) PatchItem(c *gin.Context) {
	itemID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.PatchPlanItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	patch := production.Patch{
		Status:            req.Status,
		CompletedQuantity: req.CompletedQuantity,
		AssignedTo:        req.AssignedTo,
		ScheduledDate:     req.ScheduledDate,
		Notes:             req.Notes,
	}

	item, err := h.service.PatchItem(c.Request.Context(), itemID, patch, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// MergePending handles POST /production/batches/merge/:productId
// Consolidates all unbatched pending items of a product into one batch.
func (h *ProductionHandler) MergePending(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	batch, err := h.service.MergePending(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// UpdateBatchProgress handles PUT /production/batches/:id/progress
func (h *ProductionHandler) UpdateBatchProgress(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.BatchProgressRequest
	if !h.BindJSON(c, &req) {
		return
	}

	batch, err := h.service.UpdateBatchProgress(c.Request.Context(), batchID, req.CompletedQuantity, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// GetBatch handles GET /production/batches/:id
func (h *ProductionHandler) GetBatch(c *gin.Context) {
	batchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	batch, err := h.service.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, batch)
}

// ListBatches handles GET /production/batches
func (h *ProductionHandler) ListBatches(c *gin.Context) {
	batches, err := h.service.ListBatches(
		c.Request.Context(),
		production.BatchStatus(c.Query("status")),
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(batches))
}
