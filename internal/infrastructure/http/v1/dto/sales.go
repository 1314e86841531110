package dto

import "time"

// QuoteItemRequest is one quoted product line.
type QuoteItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	UnitPrice string `json:"unitPrice" binding:"required"`
}

// CreateQuoteRequest creates a draft quote.
type CreateQuoteRequest struct {
	CustomerID string             `json:"customerId" binding:"required"`
	ValidUntil *time.Time         `json:"validUntil"`
	Items      []QuoteItemRequest `json:"items" binding:"required"`
}

// UpdateOrderStatusRequest transitions an order's lifecycle status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateReservationRequest places a soft hold on a material.
type CreateReservationRequest struct {
	MaterialID string  `json:"materialId" binding:"required"`
	Quantity   float64 `json:"quantity" binding:"required,gt=0"`
}

// ConvertQuoteResponse reports the order created from a quote.
type ConvertQuoteResponse struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Total       string `json:"total"`
}
