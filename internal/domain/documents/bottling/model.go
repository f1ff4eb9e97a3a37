// Package bottling provides the BottlingBatch document and its
// lifecycle engine. A batch records one production run: bulk liquid
// and raw materials in, finished bottles out, with full cost capture.
package bottling

import (
	"context"
	"time"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// Status is the lifecycle state of a bottling batch.
type Status string

const (
	StatusPlanned      Status = "planned"
	StatusInProgress   Status = "in_progress"
	StatusQualityCheck Status = "quality_check"
	StatusPackaged     Status = "packaged"
	StatusCompleted    Status = "completed"
	StatusCancelled    Status = "cancelled"
)

// next holds the single legal forward transition per status.
// Cancellation is not in this map: it goes through Cancel, which also
// reverses stock.
var next = map[Status]Status{
	StatusPlanned:      StatusInProgress,
	StatusInProgress:   StatusQualityCheck,
	StatusQualityCheck: StatusPackaged,
	StatusPackaged:     StatusCompleted,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusQualityCheck,
		StatusPackaged, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanAdvanceTo reports whether target is the legal next step.
func (s Status) CanAdvanceTo(target Status) bool {
	return next[s] == target
}

// BottlingBatch is a production run document.
//
// Cost figures are captured at creation time in base currency and are
// immutable afterwards; converted display figures may be absent or
// degraded without affecting them. VolumeConsumed is tracked here
// rather than in the raw-material ledger because bulk liquid is not a
// discrete material.
type BottlingBatch struct {
	entity.Document

	RecipeID     id.ID `db:"recipe_id" json:"recipeId"`
	BulkLiquidID id.ID `db:"bulk_liquid_id" json:"bulkLiquidId"`

	// SKU of the finished product this batch feeds
	SKU string `db:"sku" json:"sku"`

	QuantityPlanned   types.Quantity `db:"quantity_planned" json:"quantityPlanned"`
	QuantityProduced  types.Quantity `db:"quantity_produced" json:"quantityProduced"`
	QuantityDefective types.Quantity `db:"quantity_defective" json:"quantityDefective"`

	// VolumeConsumed is the bulk liquid drawn, in liters
	VolumeConsumed types.Quantity `db:"volume_consumed" json:"volumeConsumed"`

	// Costs in base currency
	MaterialCost types.Money `db:"material_cost" json:"materialCost"`
	LaborCost    types.Money `db:"labor_cost" json:"laborCost"`
	OverheadCost types.Money `db:"overhead_cost" json:"overheadCost"`
	TotalCost    types.Money `db:"total_cost" json:"totalCost"`
	UnitCost     types.Money `db:"unit_cost" json:"unitCost"`
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`

	// Display currency snapshot; nil fields mean conversion was not
	// performed. RateSource "fallback" marks degraded figures.
	DisplayCurrency    string       `db:"display_currency" json:"displayCurrency,omitempty"`
	ConvertedTotalCost *types.Money `db:"converted_total_cost" json:"convertedTotalCost,omitempty"`
	ConvertedUnitCost  *types.Money `db:"converted_unit_cost" json:"convertedUnitCost,omitempty"`
	ExchangeRate       *types.Money `db:"exchange_rate" json:"exchangeRate,omitempty"`
	RateSource         string       `db:"rate_source" json:"rateSource,omitempty"`
	ConvertedAt        *time.Time   `db:"converted_at" json:"convertedAt,omitempty"`

	Status Status `db:"status" json:"status"`

	OperatorID   string `db:"operator_id" json:"operatorId,omitempty"`
	SupervisorID string `db:"supervisor_id" json:"supervisorId,omitempty"`

	ProductionDate time.Time `db:"production_date" json:"productionDate"`
	Notes          string    `db:"notes" json:"notes,omitempty"`

	StartTime       *time.Time `db:"start_time" json:"startTime,omitempty"`
	EndTime         *time.Time `db:"end_time" json:"endTime,omitempty"`
	DurationMinutes int        `db:"duration_minutes" json:"durationMinutes,omitempty"`
}

// NewBottlingBatch creates a batch in planned status.
func NewBottlingBatch(recipeID, bulkLiquidID id.ID, planned, produced, defective types.Quantity) *BottlingBatch {
	return &BottlingBatch{
		Document:          entity.NewDocument(),
		RecipeID:          recipeID,
		BulkLiquidID:      bulkLiquidID,
		QuantityPlanned:   planned,
		QuantityProduced:  produced,
		QuantityDefective: defective,
		Status:            StatusPlanned,
		ProductionDate:    time.Now().UTC(),
	}
}

// SellableQuantity is what the batch adds to finished product stock.
func (b *BottlingBatch) SellableQuantity() types.Quantity {
	return b.QuantityProduced - b.QuantityDefective
}

// Validate implements entity.Validatable.
func (b *BottlingBatch) Validate(ctx context.Context) error {
	if err := b.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(b.RecipeID) {
		return apperror.NewValidation("recipe is required").
			WithDetail("field", "recipeId")
	}
	if id.IsNil(b.BulkLiquidID) {
		return apperror.NewValidation("bulk liquid is required").
			WithDetail("field", "bulkLiquidId")
	}
	if !b.QuantityPlanned.IsPositive() {
		return apperror.NewValidation("planned quantity must be positive").
			WithDetail("field", "quantityPlanned")
	}
	if !b.QuantityProduced.IsPositive() {
		return apperror.NewValidation("produced quantity must be positive").
			WithDetail("field", "quantityProduced")
	}
	if b.QuantityDefective.IsNegative() {
		return apperror.NewValidation("defective quantity cannot be negative").
			WithDetail("field", "quantityDefective")
	}
	if b.QuantityDefective > b.QuantityProduced {
		return apperror.NewValidation("defective quantity cannot exceed produced quantity").
			WithDetail("field", "quantityDefective")
	}
	if !b.Status.Valid() {
		return apperror.NewValidation("unknown status").
			WithDetail("field", "status").
			WithDetail("status", string(b.Status))
	}

	return nil
}

// AdvanceTo moves the batch to target, stamping lifecycle times.
// Returns InvalidTransition if target is not the legal next step.
func (b *BottlingBatch) AdvanceTo(target Status, now time.Time) error {
	if !target.Valid() || target == StatusCancelled {
		return apperror.NewInvalidTransition(string(b.Status), string(target))
	}
	if !b.Status.CanAdvanceTo(target) {
		return apperror.NewInvalidTransition(string(b.Status), string(target))
	}

	switch target {
	case StatusInProgress:
		t := now.UTC()
		b.StartTime = &t
	case StatusCompleted:
		t := now.UTC()
		b.EndTime = &t
		if b.StartTime != nil {
			b.DurationMinutes = int(t.Sub(*b.StartTime).Minutes())
		}
	}

	b.Status = target
	return nil
}

// MarkCancelled flips the batch to cancelled.
// Stock reversal is the engine's job; this only guards the state.
func (b *BottlingBatch) MarkCancelled() error {
	if b.Status == StatusCancelled {
		return apperror.NewBatchCancelled(b.ID)
	}
	if b.Status == StatusCompleted {
		return apperror.NewBusinessRule("BATCH_COMPLETED",
			"completed batch cannot be cancelled")
	}

	b.Status = StatusCancelled
	return nil
}
