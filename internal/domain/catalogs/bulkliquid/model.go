// Package bulkliquid provides the BulkLiquid catalog.
// Bulk liquids are fragrance concentrates stored and consumed by volume
// (liters), separately from discrete raw materials.
package bulkliquid

import (
	"context"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/types"
)

// BulkLiquid represents a fragrance concentrate tracked by volume.
//
// BulkQuantity is authoritative and never goes negative. It is mutated
// only by the batch lifecycle engine within its transaction.
type BulkLiquid struct {
	entity.Catalog

	// BulkQuantity is the available volume in liters
	BulkQuantity types.Quantity `db:"bulk_quantity" json:"bulkQuantity"`

	// CostPerLiter in base currency
	CostPerLiter types.Money `db:"cost_per_liter" json:"costPerLiter"`
}

// NewBulkLiquid creates a bulk liquid with required fields.
func NewBulkLiquid(code, name string) *BulkLiquid {
	return &BulkLiquid{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (b *BulkLiquid) Validate(ctx context.Context) error {
	if err := b.Catalog.Validate(ctx); err != nil {
		return err
	}

	if b.BulkQuantity.IsNegative() {
		return apperror.NewValidation("bulk quantity cannot be negative").
			WithDetail("field", "bulkQuantity")
	}

	if b.CostPerLiter.IsNegative() {
		return apperror.NewValidation("cost per liter cannot be negative").
			WithDetail("field", "costPerLiter")
	}

	return nil
}
