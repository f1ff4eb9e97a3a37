package product

import (
	"context"

	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// Repository defines persistence operations for finished products.
type Repository interface {
	GetByID(ctx context.Context, productID id.ID) (*FinishedProduct, error)
	GetBySKU(ctx context.Context, sku string) (*FinishedProduct, error)
	List(ctx context.Context, limit, offset int) ([]*FinishedProduct, error)

	// GetBySKUForUpdate returns the product with a row-level lock, or
	// NotFound if no product with this SKU exists yet. Concurrent
	// upserts for one SKU serialize on this lock.
	GetBySKUForUpdate(ctx context.Context, sku string) (*FinishedProduct, error)

	// Create inserts a new product row. The unique constraint on sku is
	// the last line of defense against concurrent first-time creation.
	Create(ctx context.Context, p *FinishedProduct) error

	// UpdateStockAndPrices adds delta to stock_quantity (refusing to go
	// negative) and refreshes cost and selling prices.
	UpdateStockAndPrices(ctx context.Context, productID id.ID, delta types.Quantity, costPrice, sellingPrice types.Money) error

	// AdjustStock applies a signed delta to stock_quantity, floored at zero.
	AdjustStock(ctx context.Context, productID id.ID, delta types.Quantity) error
}
