package bulkliquid

import (
	"context"

	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// Repository defines persistence operations for bulk liquids.
type Repository interface {
	Create(ctx context.Context, b *BulkLiquid) error
	Update(ctx context.Context, b *BulkLiquid) error
	GetByID(ctx context.Context, liquidID id.ID) (*BulkLiquid, error)
	List(ctx context.Context, limit, offset int) ([]*BulkLiquid, error)

	// GetForUpdate returns the liquid with a row-level lock, serializing
	// concurrent batches drawing from the same concentrate.
	GetForUpdate(ctx context.Context, liquidID id.ID) (*BulkLiquid, error)

	// AdjustVolume applies a signed delta to bulk_quantity; the statement
	// refuses to drive the balance negative.
	AdjustVolume(ctx context.Context, liquidID id.ID, delta types.Quantity) error
}
