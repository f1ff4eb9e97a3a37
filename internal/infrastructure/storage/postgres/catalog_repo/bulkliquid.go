package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/bulkliquid"
	"essentia/internal/infrastructure/storage/postgres"
)

const bulkLiquidTable = "cat_bulk_liquids"

var bulkLiquidColumns = []string{
	"id", "version", "code", "name", "bulk_quantity", "cost_per_liter",
}

// BulkLiquidRepo implements bulkliquid.Repository.
type BulkLiquidRepo struct {
	tm      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBulkLiquidRepo creates a new bulk liquid repository.
func NewBulkLiquidRepo(tm *postgres.TxManager) *BulkLiquidRepo {
	return &BulkLiquidRepo{
		tm:      tm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new bulk liquid.
func (r *BulkLiquidRepo) Create(ctx context.Context, b *bulkliquid.BulkLiquid) error {
	q := r.builder.Insert(bulkLiquidTable).
		Columns(bulkLiquidColumns...).
		Values(b.ID, b.Version, b.Code, b.Name, b.BulkQuantity, b.CostPerLiter)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("bulk liquid", "code", b.Code)
		}
		return fmt.Errorf("insert bulk liquid: %w", err)
	}

	return nil
}

// Update saves a bulk liquid with optimistic version check.
func (r *BulkLiquidRepo) Update(ctx context.Context, b *bulkliquid.BulkLiquid) error {
	q := r.builder.Update(bulkLiquidTable).
		Set("code", b.Code).
		Set("name", b.Name).
		Set("cost_per_liter", b.CostPerLiter).
		Set("version", b.Version+1).
		Where(squirrel.Eq{"id": b.ID, "version": b.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update bulk liquid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("bulk liquid was modified by another operation")
	}

	b.Touch()
	return nil
}

// GetByID retrieves a bulk liquid.
func (r *BulkLiquidRepo) GetByID(ctx context.Context, liquidID id.ID) (*bulkliquid.BulkLiquid, error) {
	q := r.builder.Select(bulkLiquidColumns...).
		From(bulkLiquidTable).
		Where(squirrel.Eq{"id": liquidID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b bulkliquid.BulkLiquid
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bulk liquid", liquidID)
		}
		return nil, fmt.Errorf("get bulk liquid: %w", err)
	}

	return &b, nil
}

// GetForUpdate retrieves a bulk liquid with a row-level lock.
func (r *BulkLiquidRepo) GetForUpdate(ctx context.Context, liquidID id.ID) (*bulkliquid.BulkLiquid, error) {
	sql := `
		SELECT id, version, code, name, bulk_quantity, cost_per_liter
		FROM cat_bulk_liquids
		WHERE id = $1
		FOR UPDATE
	`

	var b bulkliquid.BulkLiquid
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &b, sql, liquidID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("bulk liquid", liquidID)
		}
		return nil, fmt.Errorf("get bulk liquid for update: %w", err)
	}

	return &b, nil
}

// AdjustVolume applies a signed delta to bulk_quantity.
// The WHERE clause refuses to drive the volume negative.
func (r *BulkLiquidRepo) AdjustVolume(ctx context.Context, liquidID id.ID, delta types.Quantity) error {
	sql := `
		UPDATE cat_bulk_liquids
		SET bulk_quantity = bulk_quantity + $2
		WHERE id = $1 AND bulk_quantity + $2 >= 0
	`

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, liquidID, delta)
	if err != nil {
		return fmt.Errorf("adjust volume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var available types.Quantity
		err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &available,
			`SELECT bulk_quantity FROM cat_bulk_liquids WHERE id = $1`, liquidID)
		if err != nil {
			if pgxscan.NotFound(err) {
				return apperror.NewNotFound("bulk liquid", liquidID)
			}
			return fmt.Errorf("read volume balance: %w", err)
		}
		return stockShortfall(liquidID, delta, available)
	}

	return nil
}

// List retrieves bulk liquids.
func (r *BulkLiquidRepo) List(ctx context.Context, limit, offset int) ([]*bulkliquid.BulkLiquid, error) {
	q := r.builder.Select(bulkLiquidColumns...).
		From(bulkLiquidTable).
		OrderBy("code")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var liquids []*bulkliquid.BulkLiquid
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &liquids, sql, args...); err != nil {
		return nil, fmt.Errorf("select bulk liquids: %w", err)
	}

	return liquids, nil
}

var _ bulkliquid.Repository = (*BulkLiquidRepo)(nil)
