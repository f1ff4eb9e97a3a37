// Package ledger provides the append-only stock ledger register.
package ledger

import (
	"context"
	"time"

	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// Repository defines operations for the stock ledger.
// The ledger is append-only: there are deliberately no update or
// delete operations in this contract.
type Repository interface {
	// CreateEntries batch inserts entries (used during batch posting)
	CreateEntries(ctx context.Context, entries []entity.LedgerEntry) error

	// GetEntriesByBatch retrieves all entries caused by one batch
	GetEntriesByBatch(ctx context.Context, batchID id.ID) ([]entity.LedgerEntry, error)

	// GetEntriesByBatchAndType retrieves a batch's entries of one type
	GetEntriesByBatchAndType(ctx context.Context, batchID id.ID, txType entity.TransactionType) ([]entity.LedgerEntry, error)

	// GetNetByBatch sums signed quantity and value per material for a batch.
	// A fully cancelled batch nets to zero on both.
	GetNetByBatch(ctx context.Context, batchID id.ID) ([]NetPosition, error)

	// GetHistory returns entries for a material, newest first
	GetHistory(ctx context.Context, materialID id.ID, filter HistoryFilter) ([]entity.LedgerEntry, error)
}

// NetPosition is the signed net effect of a batch on one material.
type NetPosition struct {
	MaterialID  id.ID          `db:"material_id" json:"materialId"`
	NetQuantity types.Quantity `db:"net_quantity" json:"netQuantity"`
	NetValue    types.Money    `db:"net_value" json:"netValue"`
}

// HistoryFilter for ledger history queries.
type HistoryFilter struct {
	TxType   *entity.TransactionType
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
