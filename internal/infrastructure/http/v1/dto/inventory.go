package dto

import (
	"hornada/internal/core/types"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/domain/ledger"
)

// CreateMaterialRequest creates a raw material.
type CreateMaterialRequest struct {
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit" binding:"required"`
	CostPerUnit  string  `json:"costPerUnit"`
	MinimumStock float64 `json:"minimumStock"`
	Supplier     string  `json:"supplier"`
}

// UpdateMaterialRequest updates catalog fields of a material.
type UpdateMaterialRequest struct {
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit" binding:"required"`
	CostPerUnit  string  `json:"costPerUnit"`
	MinimumStock float64 `json:"minimumStock"`
	Supplier     string  `json:"supplier"`
}

// MaterialResponse is a raw material with its derived stock status.
type MaterialResponse struct {
	material.RawMaterial
	Status material.StockStatus `json:"status"`
}

// FromMaterial builds a MaterialResponse.
func FromMaterial(m *material.RawMaterial) MaterialResponse {
	return MaterialResponse{RawMaterial: *m, Status: m.Status()}
}

// RecordMovementRequest records a stock movement.
type RecordMovementRequest struct {
	Delta  float64 `json:"delta" binding:"required"`
	Reason string  `json:"reason" binding:"required"`
}

// MovementResponse is one ledger movement.
type MovementResponse struct {
	ledger.Movement
}

// StockResponse reports point-in-time stock for a material.
type StockResponse struct {
	MaterialID string         `json:"materialId"`
	Stock      types.Quantity `json:"stock"`
	Available  types.Quantity `json:"available"`
}
