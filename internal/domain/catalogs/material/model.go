// Package material provides the RawMaterial catalog.
// Raw materials are the discrete components consumed by bottling batches:
// bottles, caps, labels, perfume concentrate and packaging.
package material

import (
	"context"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/types"
)

// Category classifies a raw material for cost bucketing.
// Explicit field on the catalog, set at data entry time; cost
// calculation never guesses the category from the name.
type Category string

const (
	CategoryBottle    Category = "bottle"
	CategoryCap       Category = "cap"
	CategoryLabel     Category = "label"
	CategoryPerfume   Category = "perfume"
	CategoryPackaging Category = "packaging"
)

var validCategories = map[Category]bool{
	CategoryBottle:    true,
	CategoryCap:       true,
	CategoryLabel:     true,
	CategoryPerfume:   true,
	CategoryPackaging: true,
}

// RawMaterial represents a discrete stock-keeping material.
//
// CurrentStock is authoritative and is mutated only by the batch
// lifecycle engine, inside a transaction that also writes the
// corresponding ledger entry. It never goes negative.
type RawMaterial struct {
	entity.Catalog

	// Category for cost bucketing
	Category Category `db:"category" json:"category"`

	// Unit of measure (pcs, ml, sheet)
	Unit string `db:"unit" json:"unit"`

	// CurrentStock is the live balance
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`

	// CostPerUnit in base currency
	CostPerUnit types.Money `db:"cost_per_unit" json:"costPerUnit"`

	// MinStockLevel is the hard floor the business wants to keep
	MinStockLevel types.Quantity `db:"min_stock_level" json:"minStockLevel"`

	// ReorderPoint triggers procurement when stock falls below it
	ReorderPoint types.Quantity `db:"reorder_point" json:"reorderPoint"`
}

// NewRawMaterial creates a raw material with required fields.
func NewRawMaterial(code, name string, category Category, unit string) *RawMaterial {
	return &RawMaterial{
		Catalog:  entity.NewCatalog(code, name),
		Category: category,
		Unit:     unit,
	}
}

// Validate implements entity.Validatable.
func (m *RawMaterial) Validate(ctx context.Context) error {
	if err := m.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !validCategories[m.Category] {
		return apperror.NewValidation("unknown material category").
			WithDetail("field", "category").
			WithDetail("value", string(m.Category))
	}

	if m.CurrentStock.IsNegative() {
		return apperror.NewValidation("current stock cannot be negative").
			WithDetail("field", "currentStock")
	}

	if m.CostPerUnit.IsNegative() {
		return apperror.NewValidation("cost per unit cannot be negative").
			WithDetail("field", "costPerUnit")
	}

	return nil
}

// NeedsReorder reports whether stock has fallen to the reorder point.
func (m *RawMaterial) NeedsReorder() bool {
	return m.CurrentStock <= m.ReorderPoint
}
