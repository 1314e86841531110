package material

import (
	"context"
	"fmt"

	"hornada/internal/core/id"
	"hornada/pkg/logger"
)

// Service provides catalog operations for raw materials.
// Stock mutation is out of its reach: that belongs to the ledger.
type Service struct {
	repo Repository
}

// NewService creates a raw-material catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new material.
func (s *Service) Create(ctx context.Context, m *RawMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	logger.Info(ctx, "material created", "id", m.ID, "name", m.Name)
	return nil
}

// Update validates and persists catalog changes (name, cost, threshold).
func (s *Service) Update(ctx context.Context, m *RawMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, m)
}

// GetByID retrieves a material.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error) {
	return s.repo.GetByID(ctx, materialID)
}

// List retrieves materials, optionally filtered by derived stock status.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*RawMaterial, error) {
	status := filter.Status
	filter.Status = ""

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}

	// Status is a projection of stock vs threshold, so it is filtered here
	// rather than in SQL.
	if status == "" {
		return items, nil
	}
	filtered := items[:0]
	for _, m := range items {
		if m.Status() == status {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}
