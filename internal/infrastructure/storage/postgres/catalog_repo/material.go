// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"hornada/internal/core/apperror"
	"hornada/internal/core/id"
	"hornada/internal/domain/catalogs/material"
	"hornada/internal/infrastructure/storage/postgres"
)

const materialsTable = "raw_materials"

var materialColumns = []string{
	"id", "name", "category", "unit", "cost_per_unit",
	"current_stock", "minimum_stock", "supplier",
	"created_at", "updated_at",
}

// MaterialRepo implements material.Repository. Quantities are stored as
// scaled BIGINT and scan directly into types.Quantity.
type MaterialRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMaterialRepo creates a raw material repository.
func NewMaterialRepo(txm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a material.
func (r *MaterialRepo) Create(ctx context.Context, m *material.RawMaterial) error {
	q := r.builder.Insert(materialsTable).
		Columns(materialColumns...).
		Values(
			m.ID, m.Name, m.Category, m.Unit, m.CostPerUnit,
			m.CurrentStock.Int64Scaled(), m.MinimumStock.Int64Scaled(), m.Supplier,
			m.CreatedAt, m.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// Update rewrites the mutable catalog fields. Stock columns are owned by
// the ledger and never touched here.
func (r *MaterialRepo) Update(ctx context.Context, m *material.RawMaterial) error {
	q := r.builder.Update(materialsTable).
		Set("name", m.Name).
		Set("category", m.Category).
		Set("unit", m.Unit).
		Set("cost_per_unit", m.CostPerUnit).
		Set("minimum_stock", m.MinimumStock.Int64Scaled()).
		Set("supplier", m.Supplier).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("raw material", m.ID)
	}
	return nil
}

// GetByID loads one material.
func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	q := r.builder.Select(materialColumns...).
		From(materialsTable).
		Where(squirrel.Eq{"id": materialID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m material.RawMaterial
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("raw material", materialID)
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// List returns materials matching the filter. Derived stock status is
// filtered by the service; only persisted columns are filtered here.
func (r *MaterialRepo) List(ctx context.Context, filter material.ListFilter) ([]*material.RawMaterial, error) {
	q := r.builder.Select(materialColumns...).From(materialsTable)

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}
	if filter.Category != "" {
		q = q.Where(squirrel.Eq{"category": filter.Category})
	}

	q = q.OrderBy("name")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var materials []*material.RawMaterial
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &materials, sql, args...); err != nil {
		return nil, fmt.Errorf("select materials: %w", err)
	}
	return materials, nil
}

var _ material.Repository = (*MaterialRepo)(nil)
