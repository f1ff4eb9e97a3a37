package material

import (
	"context"

	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// Repository defines persistence operations for raw materials.
type Repository interface {
	Create(ctx context.Context, m *RawMaterial) error
	Update(ctx context.Context, m *RawMaterial) error
	GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error)
	List(ctx context.Context, filter ListFilter) ([]*RawMaterial, error)

	// GetForUpdate returns the material with a row-level lock.
	// Must be called inside a transaction; the lock is held until commit,
	// serializing concurrent batches competing for the same material.
	GetForUpdate(ctx context.Context, materialID id.ID) (*RawMaterial, error)

	// AdjustStock applies a signed delta to current_stock.
	// The statement itself refuses to drive the balance negative, as a
	// second line of defense behind the engine's locked pre-checks.
	AdjustStock(ctx context.Context, materialID id.ID, delta types.Quantity) error
}

// ListFilter for material queries.
type ListFilter struct {
	Category     *Category
	BelowReorder bool
	Search       string
	Limit        int
	Offset       int
}
