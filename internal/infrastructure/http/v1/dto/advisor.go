package dto

import "time"

// ForecastRequest is one externally predicted product demand.
type ForecastRequest struct {
	ProductID         string    `json:"productId" binding:"required"`
	PredictedQuantity int64     `json:"predictedQuantity" binding:"required,gt=0"`
	Confidence        float64   `json:"confidence"`
	Date              time.Time `json:"date"`
}

// ComputeShortagesRequest carries a forecast batch for shortage computation.
type ComputeShortagesRequest struct {
	Forecasts []ForecastRequest `json:"forecasts" binding:"required,min=1"`
}
