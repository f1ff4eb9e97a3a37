// Package costing computes the cost breakdown of a bottling batch:
// materials by category, bulk liquid, labor and overhead, in the base
// currency.
package costing

import (
	"context"

	"github.com/shopspring/decimal"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/bulkliquid"
	"essentia/internal/domain/catalogs/material"
	"essentia/internal/domain/catalogs/recipe"
	"essentia/pkg/logger"
)

// Config holds the cost parameters, injectable per deployment.
type Config struct {
	// SetupHours is the fixed labor spent preparing a production run
	SetupHours types.Money

	// MinutesPerUnit is the labor spent per bottle produced
	MinutesPerUnit types.Money

	// HourlyRate is the labor cost per hour in base currency
	HourlyRate types.Money

	// OverheadRate is applied to the sum of material and labor costs
	// (0.15 = 15%)
	OverheadRate types.Money

	// FallbackMaterialCost is used when a recipe line's material cannot
	// be resolved; costing degrades instead of failing the whole batch
	FallbackMaterialCost types.Money
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SetupHours:           types.MustMoney("0.5"),
		MinutesPerUnit:       types.MustMoney("2"),
		HourlyRate:           types.MustMoney("18"),
		OverheadRate:         types.MustMoney("0.15"),
		FallbackMaterialCost: types.MustMoney("1"),
	}
}

// LineCost is the consumption and cost of one recipe line.
type LineCost struct {
	MaterialID   id.ID             `json:"materialId"`
	MaterialName string            `json:"materialName"`
	Category     material.Category `json:"category"`
	Consumed     types.Quantity    `json:"consumed"`
	UnitCost     types.Money       `json:"unitCost"`
	TotalCost    types.Money       `json:"totalCost"`
}

// Breakdown is the full cost picture of a batch in base currency.
// It is transient: the engine persists its totals on the batch record
// and its per-line consumptions as ledger entries.
type Breakdown struct {
	Lines []LineCost `json:"lines"`

	// Category buckets
	BottleCost    types.Money `json:"bottleCost"`
	CapCost       types.Money `json:"capCost"`
	LabelCost     types.Money `json:"labelCost"`
	PackagingCost types.Money `json:"packagingCost"`
	PerfumeCost   types.Money `json:"perfumeCost"`

	// VolumeConsumed is the bulk liquid drawn, in liters
	VolumeConsumed types.Quantity `json:"volumeConsumed"`

	MaterialCost types.Money `json:"materialCost"`
	LaborCost    types.Money `json:"laborCost"`
	OverheadCost types.Money `json:"overheadCost"`
	TotalCost    types.Money `json:"totalCost"`
	UnitCost     types.Money `json:"unitCost"`

	// FallbackMaterials lists recipe lines costed with the fallback
	// rate because their material could not be resolved
	FallbackMaterials []id.ID `json:"fallbackMaterials,omitempty"`
}

// Degraded reports whether any line was costed with the fallback rate.
func (b *Breakdown) Degraded() bool {
	return len(b.FallbackMaterials) > 0
}

// Calculator computes batch cost breakdowns.
type Calculator struct {
	cfg Config
}

// NewCalculator creates a calculator with the given cost parameters.
func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// sixty as decimal, for minutes-to-hours conversion.
var sixty = decimal.NewFromInt(60)

// Calculate computes the breakdown for producing quantity units of the
// recipe from the given bulk liquid. materials maps material id to the
// resolved catalog record; a missing entry degrades that line to the
// fallback cost rather than aborting the batch.
func (c *Calculator) Calculate(
	ctx context.Context,
	rec *recipe.Recipe,
	quantity types.Quantity,
	liquid *bulkliquid.BulkLiquid,
	materials map[id.ID]*material.RawMaterial,
) (*Breakdown, error) {
	if !quantity.IsPositive() {
		return nil, apperror.NewInvalidInput("quantity must be positive").
			WithDetail("quantity", quantity.Float64())
	}

	b := &Breakdown{
		Lines: make([]LineCost, 0, len(rec.Lines)),
	}

	for _, line := range rec.Lines {
		consumed := line.QuantityPerUnit.Mul(quantity)

		lc := LineCost{
			MaterialID: line.MaterialID,
			Consumed:   consumed,
		}

		if m, ok := materials[line.MaterialID]; ok {
			lc.MaterialName = m.Name
			lc.Category = m.Category
			lc.UnitCost = m.CostPerUnit
		} else {
			// Costing must not abort the batch on a lookup miss.
			lc.UnitCost = c.cfg.FallbackMaterialCost
			b.FallbackMaterials = append(b.FallbackMaterials, line.MaterialID)
			logger.Warn(ctx, "material lookup failed, using fallback cost",
				"material_id", line.MaterialID,
				"fallback_cost", c.cfg.FallbackMaterialCost,
			)
		}

		lc.TotalCost = lc.UnitCost.Mul(consumed.Decimal())
		b.Lines = append(b.Lines, lc)

		switch lc.Category {
		case material.CategoryBottle:
			b.BottleCost = b.BottleCost.Add(lc.TotalCost)
		case material.CategoryCap:
			b.CapCost = b.CapCost.Add(lc.TotalCost)
		case material.CategoryLabel:
			b.LabelCost = b.LabelCost.Add(lc.TotalCost)
		case material.CategoryPerfume:
			b.PerfumeCost = b.PerfumeCost.Add(lc.TotalCost)
		default:
			b.PackagingCost = b.PackagingCost.Add(lc.TotalCost)
		}

		b.MaterialCost = b.MaterialCost.Add(lc.TotalCost)
	}

	// Bulk liquid drawn in proportion to bottle volume.
	b.VolumeConsumed = rec.VolumePerUnit.Mul(quantity)
	liquidCost := liquid.CostPerLiter.Mul(b.VolumeConsumed.Decimal())
	b.PerfumeCost = b.PerfumeCost.Add(liquidCost)
	b.MaterialCost = b.MaterialCost.Add(liquidCost)

	// Labor: fixed setup plus per-unit minutes at the hourly rate.
	qtyDec := quantity.Decimal()
	laborHours := c.cfg.SetupHours.Add(qtyDec.Mul(c.cfg.MinutesPerUnit).Div(sixty))
	b.LaborCost = laborHours.Mul(c.cfg.HourlyRate)

	b.OverheadCost = c.cfg.OverheadRate.Mul(b.MaterialCost.Add(b.LaborCost))
	b.TotalCost = b.MaterialCost.Add(b.LaborCost).Add(b.OverheadCost)
	b.UnitCost = b.TotalCost.Div(qtyDec)

	return b, nil
}
