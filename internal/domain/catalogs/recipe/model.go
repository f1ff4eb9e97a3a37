// Package recipe provides the Recipe catalog (bill of materials).
// A recipe maps one finished-good size to the raw-material quantities
// consumed per unit produced.
package recipe

import (
	"context"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// Recipe is a bill of materials for one bottle size.
//
// A batch never depends on the recipe after creation: the consumed
// quantities are snapshotted into the batch's ledger entries, so a
// later recipe edit cannot change how a historical batch is reversed.
type Recipe struct {
	entity.Catalog

	// VolumePerUnit is the bulk liquid consumed per bottle, in liters
	VolumePerUnit types.Quantity `db:"volume_per_unit" json:"volumePerUnit"`

	// Lines are the raw-material consumptions per unit, ordered
	Lines []Line `db:"-" json:"lines"`
}

// Line is one raw-material consumption in the bill of materials.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	MaterialID id.ID `db:"material_id" json:"materialId"`

	// QuantityPerUnit consumed per bottle produced
	QuantityPerUnit types.Quantity `db:"quantity_per_unit" json:"quantityPerUnit"`
}

// NewRecipe creates a recipe with required fields.
func NewRecipe(code, name string, volumePerUnit types.Quantity) *Recipe {
	return &Recipe{
		Catalog:       entity.NewCatalog(code, name),
		VolumePerUnit: volumePerUnit,
		Lines:         make([]Line, 0),
	}
}

// AddLine appends a material consumption line.
func (r *Recipe) AddLine(materialID id.ID, quantityPerUnit types.Quantity) {
	r.Lines = append(r.Lines, Line{
		LineID:          id.New(),
		LineNo:          len(r.Lines) + 1,
		MaterialID:      materialID,
		QuantityPerUnit: quantityPerUnit,
	})
}

// Validate implements entity.Validatable.
func (r *Recipe) Validate(ctx context.Context) error {
	if err := r.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !r.VolumePerUnit.IsPositive() {
		return apperror.NewValidation("volume per unit must be positive").
			WithDetail("field", "volumePerUnit")
	}

	if len(r.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range r.Lines {
		if id.IsNil(line.MaterialID) {
			return apperror.NewValidation("material is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.QuantityPerUnit.IsPositive() {
			return apperror.NewValidation("quantity per unit must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}
