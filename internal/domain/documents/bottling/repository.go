package bottling

import (
	"context"
	"time"

	"essentia/internal/core/id"
)

// Repository defines persistence operations for bottling batches.
type Repository interface {
	Create(ctx context.Context, b *BottlingBatch) error
	Update(ctx context.Context, b *BottlingBatch) error
	GetByID(ctx context.Context, batchID id.ID) (*BottlingBatch, error)

	// GetForUpdate returns the batch with a row-level lock, serializing
	// concurrent lifecycle operations on the same batch.
	GetForUpdate(ctx context.Context, batchID id.ID) (*BottlingBatch, error)

	List(ctx context.Context, filter ListFilter) ([]*BottlingBatch, error)
}

// ListFilter for batch queries.
type ListFilter struct {
	Status   *Status
	RecipeID *id.ID
	SKU      string
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
