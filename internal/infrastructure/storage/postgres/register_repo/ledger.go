// Package register_repo provides PostgreSQL implementations for
// register repositories.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/internal/domain/registers/ledger"
	"essentia/internal/infrastructure/storage/postgres"
)

const ledgerTable = "reg_stock_ledger"

var ledgerColumns = []string{
	"line_id", "material_id", "tx_type", "quantity",
	"unit_cost", "total_value", "batch_id", "created_by", "created_at",
}

// LedgerRepo implements ledger.Repository.
// The table is append-only; no UPDATE or DELETE is ever issued here.
type LedgerRepo struct {
	tm      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new stock ledger repository.
func NewLedgerRepo(tm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		tm:      tm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateEntries batch inserts ledger entries.
func (r *LedgerRepo) CreateEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction, which posting always is.
	if tx := r.tm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.tm)
		rows := make([][]any, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []any{
				e.LineID, e.MaterialID, e.TxType, e.Quantity,
				e.UnitCost, e.TotalValue, e.BatchID, e.CreatedBy, e.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, ledgerTable, ledgerColumns, rows); err != nil {
			return fmt.Errorf("copy entries: %w", err)
		}
		return nil
	}

	q := r.builder.Insert(ledgerTable).Columns(ledgerColumns...)
	for _, e := range entries {
		q = q.Values(
			e.LineID, e.MaterialID, e.TxType, e.Quantity,
			e.UnitCost, e.TotalValue, e.BatchID, e.CreatedBy, e.CreatedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}

	return nil
}

// GetEntriesByBatch retrieves all entries caused by a batch.
func (r *LedgerRepo) GetEntriesByBatch(ctx context.Context, batchID id.ID) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("created_at", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.LedgerEntry
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}

	return entries, nil
}

// GetEntriesByBatchAndType retrieves a batch's entries of one type.
func (r *LedgerRepo) GetEntriesByBatchAndType(ctx context.Context, batchID id.ID, txType entity.TransactionType) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"batch_id": batchID, "tx_type": txType}).
		OrderBy("created_at", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []entity.LedgerEntry
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}

	return entries, nil
}

// GetNetByBatch sums signed quantity and value per material.
// A fully reversed batch nets to zero on both columns.
func (r *LedgerRepo) GetNetByBatch(ctx context.Context, batchID id.ID) ([]ledger.NetPosition, error) {
	sql := `
		SELECT material_id,
		       COALESCE(SUM(CASE
		           WHEN tx_type IN ('consumption', 'production_out_reversal')
		           THEN -quantity ELSE quantity END), 0) AS net_quantity,
		       COALESCE(SUM(CASE
		           WHEN tx_type IN ('consumption', 'production_out_reversal')
		           THEN -total_value ELSE total_value END), 0) AS net_value
		FROM reg_stock_ledger
		WHERE batch_id = $1
		GROUP BY material_id
		ORDER BY material_id
	`

	var positions []ledger.NetPosition
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &positions, sql, batchID); err != nil {
		return nil, fmt.Errorf("select net positions: %w", err)
	}

	return positions, nil
}

// GetHistory returns entries for a material, newest first.
func (r *LedgerRepo) GetHistory(ctx context.Context, materialID id.ID, filter ledger.HistoryFilter) ([]entity.LedgerEntry, error) {
	q := r.builder.Select(ledgerColumns...).
		From(ledgerTable).
		Where(squirrel.Eq{"material_id": materialID})

	if filter.TxType != nil {
		q = q.Where(squirrel.Eq{"tx_type": *filter.TxType})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	q = q.OrderBy("created_at DESC", "line_id DESC")

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

	var entries []entity.LedgerEntry
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return entries, nil
}

var _ ledger.Repository = (*LedgerRepo)(nil)
