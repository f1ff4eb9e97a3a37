// Package catalog_repo provides PostgreSQL implementations for catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/material"
	"essentia/internal/infrastructure/storage/postgres"
)

const materialTable = "cat_materials"

var materialColumns = []string{
	"id", "version", "code", "name", "category", "unit",
	"current_stock", "cost_per_unit", "min_stock_level", "reorder_point",
}

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	tm      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMaterialRepo creates a new raw material repository.
func NewMaterialRepo(tm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		tm:      tm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new material.
func (r *MaterialRepo) Create(ctx context.Context, m *material.RawMaterial) error {
	q := r.builder.Insert(materialTable).
		Columns(materialColumns...).
		Values(m.ID, m.Version, m.Code, m.Name, m.Category, m.Unit,
			m.CurrentStock, m.CostPerUnit, m.MinStockLevel, m.ReorderPoint)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("material", "code", m.Code)
		}
		return fmt.Errorf("insert material: %w", err)
	}

	return nil
}

// Update saves a material with optimistic version check.
func (r *MaterialRepo) Update(ctx context.Context, m *material.RawMaterial) error {
	q := r.builder.Update(materialTable).
		Set("code", m.Code).
		Set("name", m.Name).
		Set("category", m.Category).
		Set("unit", m.Unit).
		Set("cost_per_unit", m.CostPerUnit).
		Set("min_stock_level", m.MinStockLevel).
		Set("reorder_point", m.ReorderPoint).
		Set("version", m.Version+1).
		Where(squirrel.Eq{"id": m.ID, "version": m.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("material was modified by another operation")
	}

	m.Touch()
	return nil
}

// GetByID retrieves a material.
func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	q := r.builder.Select(materialColumns...).
		From(materialTable).
		Where(squirrel.Eq{"id": materialID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m material.RawMaterial
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("material", materialID)
		}
		return nil, fmt.Errorf("get material: %w", err)
	}

	return &m, nil
}

// GetForUpdate retrieves a material with a row-level lock.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	sql := `
		SELECT id, version, code, name, category, unit,
		       current_stock, cost_per_unit, min_stock_level, reorder_point
		FROM cat_materials
		WHERE id = $1
		FOR UPDATE
	`

	var m material.RawMaterial
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &m, sql, materialID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("material", materialID)
		}
		return nil, fmt.Errorf("get material for update: %w", err)
	}

	return &m, nil
}

// AdjustStock applies a signed delta to current_stock.
// The WHERE clause refuses to drive the balance negative.
func (r *MaterialRepo) AdjustStock(ctx context.Context, materialID id.ID, delta types.Quantity) error {
	sql := `
		UPDATE cat_materials
		SET current_stock = current_stock + $2
		WHERE id = $1 AND current_stock + $2 >= 0
	`

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, materialID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// The row is still locked by the caller, so this balance is
		// exactly what the refused update saw.
		var available types.Quantity
		err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &available,
			`SELECT current_stock FROM cat_materials WHERE id = $1`, materialID)
		if err != nil {
			if pgxscan.NotFound(err) {
				return apperror.NewNotFound("material", materialID)
			}
			return fmt.Errorf("read stock balance: %w", err)
		}
		return stockShortfall(materialID, delta, available)
	}

	return nil
}

// List retrieves materials with filtering.
func (r *MaterialRepo) List(ctx context.Context, filter material.ListFilter) ([]*material.RawMaterial, error) {
	q := r.builder.Select(materialColumns...).From(materialTable)

	if filter.Category != nil {
		q = q.Where(squirrel.Eq{"category": *filter.Category})
	}
	if filter.BelowReorder {
		q = q.Where("current_stock <= reorder_point")
	}
	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"name": "%" + filter.Search + "%"})
	}

	q = q.OrderBy("code")

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
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &materials, sql, args...); err != nil {
		return nil, fmt.Errorf("select materials: %w", err)
	}

	return materials, nil
}

var _ material.Repository = (*MaterialRepo)(nil)
