package dto

import (
	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/bulkliquid"
	"essentia/internal/domain/catalogs/recipe"
)

// --- Recipes ---

type CreateRecipeRequest struct {
	Code          string              `json:"code" binding:"required"`
	Name          string              `json:"name" binding:"required"`
	VolumePerUnit float64             `json:"volumePerUnit" binding:"required,gt=0"`
	Lines         []RecipeLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type RecipeLineRequest struct {
	MaterialID      string  `json:"materialId" binding:"required"`
	QuantityPerUnit float64 `json:"quantityPerUnit" binding:"required,gt=0"`
}

// ToEntity maps the DTO to a new recipe.
func (r *CreateRecipeRequest) ToEntity() (*recipe.Recipe, error) {
	rec := recipe.NewRecipe(r.Code, r.Name, types.NewQuantityFromFloat64(r.VolumePerUnit))

	for i, line := range r.Lines {
		materialID, err := id.Parse(line.MaterialID)
		if err != nil {
			return nil, apperror.NewValidation("invalid material id").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		rec.AddLine(materialID, types.NewQuantityFromFloat64(line.QuantityPerUnit))
	}

	return rec, nil
}

// --- Bulk liquids ---

type CreateBulkLiquidRequest struct {
	Code         string  `json:"code" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	BulkQuantity float64 `json:"bulkQuantity" binding:"gte=0"`
	CostPerLiter float64 `json:"costPerLiter" binding:"gte=0"`
}

// ToEntity maps the DTO to a new bulk liquid.
func (r *CreateBulkLiquidRequest) ToEntity() *bulkliquid.BulkLiquid {
	b := bulkliquid.NewBulkLiquid(r.Code, r.Name)
	b.BulkQuantity = types.NewQuantityFromFloat64(r.BulkQuantity)
	b.CostPerLiter = types.NewMoney(r.CostPerLiter)
	return b
}
