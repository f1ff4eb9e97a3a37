// Package document_repo provides PostgreSQL implementations for
// document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/domain/documents/bottling"
	"essentia/internal/infrastructure/storage/postgres"
)

const bottlingTable = "doc_bottling_batches"

var bottlingColumns = []string{
	"id", "version", "created_at", "updated_at", "created_by", "updated_by",
	"number", "date", "comment",
	"recipe_id", "bulk_liquid_id", "sku",
	"quantity_planned", "quantity_produced", "quantity_defective",
	"volume_consumed",
	"material_cost", "labor_cost", "overhead_cost", "total_cost",
	"unit_cost", "selling_price",
	"display_currency", "converted_total_cost", "converted_unit_cost",
	"exchange_rate", "rate_source", "converted_at",
	"status", "operator_id", "supervisor_id",
	"production_date", "notes",
	"start_time", "end_time", "duration_minutes",
}

func bottlingValues(b *bottling.BottlingBatch) []any {
	return []any{
		b.ID, b.Version, b.CreatedAt, b.UpdatedAt, b.CreatedBy, b.UpdatedBy,
		b.Number, b.Date, b.Comment,
		b.RecipeID, b.BulkLiquidID, b.SKU,
		b.QuantityPlanned, b.QuantityProduced, b.QuantityDefective,
		b.VolumeConsumed,
		b.MaterialCost, b.LaborCost, b.OverheadCost, b.TotalCost,
		b.UnitCost, b.SellingPrice,
		b.DisplayCurrency, b.ConvertedTotalCost, b.ConvertedUnitCost,
		b.ExchangeRate, b.RateSource, b.ConvertedAt,
		b.Status, b.OperatorID, b.SupervisorID,
		b.ProductionDate, b.Notes,
		b.StartTime, b.EndTime, b.DurationMinutes,
	}
}

// BottlingRepo implements bottling.Repository.
type BottlingRepo struct {
	tm      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBottlingRepo creates a new bottling batch repository.
func NewBottlingRepo(tm *postgres.TxManager) *BottlingRepo {
	return &BottlingRepo{
		tm:      tm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new batch.
func (r *BottlingRepo) Create(ctx context.Context, b *bottling.BottlingBatch) error {
	q := r.builder.Insert(bottlingTable).
		Columns(bottlingColumns...).
		Values(bottlingValues(b)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("batch", "number", b.Number)
		}
		return fmt.Errorf("insert batch: %w", err)
	}

	return nil
}

// Update saves a batch with optimistic version check.
// Cost figures are immutable after creation, so they are not in the
// SET list.
func (r *BottlingRepo) Update(ctx context.Context, b *bottling.BottlingBatch) error {
	q := r.builder.Update(bottlingTable).
		Set("updated_at", b.UpdatedAt).
		Set("updated_by", b.UpdatedBy).
		Set("comment", b.Comment).
		Set("status", b.Status).
		Set("production_date", b.ProductionDate).
		Set("notes", b.Notes).
		Set("start_time", b.StartTime).
		Set("end_time", b.EndTime).
		Set("duration_minutes", b.DurationMinutes).
		Set("version", b.Version+1).
		Where(squirrel.Eq{"id": b.ID, "version": b.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("batch was modified by another operation")
	}

	b.Touch()
	return nil
}

// GetByID retrieves a batch.
func (r *BottlingRepo) GetByID(ctx context.Context, batchID id.ID) (*bottling.BottlingBatch, error) {
	q := r.builder.Select(bottlingColumns...).
		From(bottlingTable).
		Where(squirrel.Eq{"id": batchID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b bottling.BottlingBatch
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	return &b, nil
}

// GetForUpdate retrieves a batch with a row-level lock.
func (r *BottlingRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*bottling.BottlingBatch, error) {
	q := r.builder.Select(bottlingColumns...).
		From(bottlingTable).
		Where(squirrel.Eq{"id": batchID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b bottling.BottlingBatch
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("batch", batchID)
		}
		return nil, fmt.Errorf("get batch for update: %w", err)
	}

	return &b, nil
}

// List retrieves batches with filtering, newest first.
func (r *BottlingRepo) List(ctx context.Context, filter bottling.ListFilter) ([]*bottling.BottlingBatch, error) {
	q := r.builder.Select(bottlingColumns...).From(bottlingTable)

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.RecipeID != nil {
		q = q.Where(squirrel.Eq{"recipe_id": *filter.RecipeID})
	}
	if filter.SKU != "" {
		q = q.Where(squirrel.Eq{"sku": filter.SKU})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"production_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"production_date": *filter.ToDate})
	}

	q = q.OrderBy("production_date DESC", "number DESC")

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

	var batches []*bottling.BottlingBatch
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("select batches: %w", err)
	}

	return batches, nil
}

var _ bottling.Repository = (*BottlingRepo)(nil)
