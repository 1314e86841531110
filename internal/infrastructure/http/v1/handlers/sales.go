package handlers

import (
	"github.com/gin-gonic/gin"

	"hornada/internal/core/apperror"
	"hornada/internal/core/types"
	"hornada/internal/domain/fulfillment"
	"hornada/internal/domain/sales/order"
	"hornada/internal/domain/sales/quote"
	"hornada/internal/infrastructure/http/v1/dto"
)

// SalesHandler handles quote and order endpoints, including the
// quote-to-order conversion.
type SalesHandler struct {
	*BaseHandler
	quotes      quote.Repository
	orders      order.Repository
	fulfillment *fulfillment.Service
	numbers     fulfillment.NumberGenerator
}

// NewSalesHandler creates a sales handler.
func NewSalesHandler(
	base *BaseHandler,
	quotes quote.Repository,
	orders order.Repository,
	fulfillmentSvc *fulfillment.Service,
	numbers fulfillment.NumberGenerator,
) *SalesHandler {
	return &SalesHandler{
		BaseHandler: base,
		quotes:      quotes,
		orders:      orders,
		fulfillment: fulfillmentSvc,
		numbers:     numbers,
	}
}

// CreateQuote handles POST /sales/quotes
func (h *SalesHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	customerID, err := idFromString(req.CustomerID, "customerId")
	if err != nil {
		h.Error(c, err)
		return
	}

	q := quote.NewQuote(customerID)
	q.ValidUntil = req.ValidUntil
	for _, it := range req.Items {
		productID, err := idFromString(it.ProductID, "items.productId")
		if err != nil {
			h.Error(c, err)
			return
		}
		price, err := types.NewMoneyFromString(it.UnitPrice)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid unitPrice").WithDetail("field", "items.unitPrice"))
			return
		}
		q.AddItem(productID, it.Quantity, price)
	}

	ctx := c.Request.Context()
	if err := q.Validate(ctx); err != nil {
		h.Error(c, err)
		return
	}

	number, err := h.numbers.Next(ctx, "quote")
	if err != nil {
		h.Error(c, err)
		return
	}
	q.Number = number

	if err := h.quotes.Create(ctx, q); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, q.ID.String())
}

// GetQuote handles GET /sales/quotes/:id
func (h *SalesHandler) GetQuote(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	q, err := h.quotes.GetByID(c.Request.Context(), quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, q)
}

// ListQuotes handles GET /sales/quotes
func (h *SalesHandler) ListQuotes(c *gin.Context) {
	items, err := h.quotes.List(
		c.Request.Context(),
		quote.Status(c.Query("status")),
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// SendQuote handles POST /sales/quotes/:id/send
// Marks a draft quote as sent to the customer.
func (h *SalesHandler) SendQuote(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	q, err := h.quotes.GetByID(ctx, quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if q.Status != quote.StatusDraft {
		h.Error(c, apperror.NewBusinessRule(apperror.CodeBusinessRule, "only draft quotes can be sent").
			WithDetail("status", string(q.Status)))
		return
	}
	if err := h.quotes.UpdateStatus(ctx, quoteID, quote.StatusSent); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "quote sent")
}

// ConvertQuote handles POST /sales/quotes/:id/convert
// Runs the all-or-nothing conversion: reserve materials, create the order,
// mark the quote converted, commit the holds.
func (h *SalesHandler) ConvertQuote(c *gin.Context) {
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ord, err := h.fulfillment.ConvertQuoteToOrder(c.Request.Context(), quoteID, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ConvertQuoteResponse{
		OrderID:     ord.ID.String(),
		OrderNumber: ord.Number,
		Total:       ord.Total.String(),
	})
}

// CreateReservation handles POST /sales/reservations
// Places a soft hold on a material outside of quote conversion, e.g. for a
// counter sale being assembled.
func (h *SalesHandler) CreateReservation(c *gin.Context) {
	var req dto.CreateReservationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	materialID, err := idFromString(req.MaterialID, "materialId")
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.fulfillment.ReserveForOrder(
		c.Request.Context(),
		materialID,
		types.NewQuantityFromFloat64(req.Quantity),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, res.Token.String())
}

// ReleaseReservation handles DELETE /sales/reservations/:token
func (h *SalesHandler) ReleaseReservation(c *gin.Context) {
	token, ok := h.ParseID(c, "token")
	if !ok {
		return
	}

	if err := h.fulfillment.ReleaseReservation(c.Request.Context(), token); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// GetOrder handles GET /sales/orders/:id
func (h *SalesHandler) GetOrder(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ord, err := h.orders.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, ord)
}

// ListOrders handles GET /sales/orders
func (h *SalesHandler) ListOrders(c *gin.Context) {
	items, err := h.orders.List(
		c.Request.Context(),
		order.Status(c.Query("status")),
		h.ParseIntQuery(c, "limit", 100),
		h.ParseIntQuery(c, "offset", 0),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// UpdateOrderStatus handles PUT /sales/orders/:id/status
func (h *SalesHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateOrderStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	status := order.Status(req.Status)
	switch status {
	case order.StatusPending, order.StatusConfirmed, order.StatusInProduction,
		order.StatusReady, order.StatusDelivered, order.StatusCancelled:
	default:
		h.Error(c, apperror.NewValidation("unknown order status").WithDetail("status", req.Status))
		return
	}

	ctx := c.Request.Context()
	if _, err := h.orders.GetByID(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}
	if err := h.orders.UpdateStatus(ctx, orderID, status); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "order status updated")
}
