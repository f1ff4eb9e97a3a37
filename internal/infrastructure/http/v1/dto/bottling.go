package dto

import (
	"time"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
	"essentia/internal/domain/currency"
	"essentia/internal/domain/documents/bottling"
)

// --- Request DTOs ---

type CreateBatchRequest struct {
	RecipeID     string `json:"recipeId" binding:"required"`
	BulkLiquidID string `json:"bulkLiquidId" binding:"required"`

	QuantityPlanned   float64 `json:"quantityPlanned" binding:"required,gt=0"`
	QuantityProduced  float64 `json:"quantityProduced" binding:"required,gt=0"`
	QuantityDefective float64 `json:"quantityDefective" binding:"gte=0"`

	OperatorID   string `json:"operatorId,omitempty"`
	SupervisorID string `json:"supervisorId,omitempty"`

	ProductionDate *time.Time `json:"productionDate,omitempty"`
	Notes          string     `json:"notes,omitempty"`

	MarginPercent   *float64 `json:"marginPercent,omitempty"`
	DisplayCurrency string   `json:"displayCurrency,omitempty"`
}

// ToServiceRequest maps the DTO to the engine request.
func (r *CreateBatchRequest) ToServiceRequest() (bottling.CreateRequest, error) {
	recipeID, err := id.Parse(r.RecipeID)
	if err != nil {
		return bottling.CreateRequest{}, apperror.NewValidation("invalid recipe id").
			WithDetail("field", "recipeId")
	}
	liquidID, err := id.Parse(r.BulkLiquidID)
	if err != nil {
		return bottling.CreateRequest{}, apperror.NewValidation("invalid bulk liquid id").
			WithDetail("field", "bulkLiquidId")
	}

	req := bottling.CreateRequest{
		RecipeID:          recipeID,
		BulkLiquidID:      liquidID,
		QuantityPlanned:   types.NewQuantityFromFloat64(r.QuantityPlanned),
		QuantityProduced:  types.NewQuantityFromFloat64(r.QuantityProduced),
		QuantityDefective: types.NewQuantityFromFloat64(r.QuantityDefective),
		OperatorID:        r.OperatorID,
		SupervisorID:      r.SupervisorID,
		Notes:             r.Notes,
		DisplayCurrency:   r.DisplayCurrency,
	}
	if r.ProductionDate != nil {
		req.ProductionDate = *r.ProductionDate
	}
	if r.MarginPercent != nil {
		margin := types.NewMoney(*r.MarginPercent)
		req.MarginPercent = &margin
	}

	return req, nil
}

type AdvanceBatchRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdateBatchRequest struct {
	ProductionDate *time.Time `json:"productionDate,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

type CancelBatchRequest struct {
	CancelledBy string `json:"cancelledBy,omitempty"`
}

// --- Response DTOs ---

type BatchResponse struct {
	ID      string    `json:"id"`
	Number  string    `json:"number"`
	Date    time.Time `json:"date"`
	Comment string    `json:"comment,omitempty"`

	RecipeID     string `json:"recipeId"`
	BulkLiquidID string `json:"bulkLiquidId"`
	SKU          string `json:"sku"`

	QuantityPlanned   types.Quantity `json:"quantityPlanned"`
	QuantityProduced  types.Quantity `json:"quantityProduced"`
	QuantityDefective types.Quantity `json:"quantityDefective"`
	VolumeConsumed    types.Quantity `json:"volumeConsumed"`

	MaterialCost types.Money `json:"materialCost"`
	LaborCost    types.Money `json:"laborCost"`
	OverheadCost types.Money `json:"overheadCost"`
	TotalCost    types.Money `json:"totalCost"`
	UnitCost     types.Money `json:"unitCost"`
	SellingPrice types.Money `json:"sellingPrice"`

	DisplayCurrency    string       `json:"displayCurrency,omitempty"`
	ConvertedTotalCost *types.Money `json:"convertedTotalCost,omitempty"`
	ConvertedUnitCost  *types.Money `json:"convertedUnitCost,omitempty"`
	ExchangeRate       *types.Money `json:"exchangeRate,omitempty"`
	RateSource         string       `json:"rateSource,omitempty"`
	ConvertedAt        *time.Time   `json:"convertedAt,omitempty"`
	Warnings           []string     `json:"warnings,omitempty"`

	Status string `json:"status"`

	OperatorID   string `json:"operatorId,omitempty"`
	SupervisorID string `json:"supervisorId,omitempty"`

	ProductionDate time.Time `json:"productionDate"`
	Notes          string    `json:"notes,omitempty"`

	StartTime       *time.Time `json:"startTime,omitempty"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	DurationMinutes int        `json:"durationMinutes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromBatch maps a batch to its response shape.
// Batches costed with the fallback exchange rate carry a
// CONVERSION_DEGRADED warning so clients know the display figures
// are approximate.
func FromBatch(b *bottling.BottlingBatch) *BatchResponse {
	resp := &BatchResponse{
		ID:                 b.ID.String(),
		Number:             b.Number,
		Date:               b.Date,
		Comment:            b.Comment,
		RecipeID:           b.RecipeID.String(),
		BulkLiquidID:       b.BulkLiquidID.String(),
		SKU:                b.SKU,
		QuantityPlanned:    b.QuantityPlanned,
		QuantityProduced:   b.QuantityProduced,
		QuantityDefective:  b.QuantityDefective,
		VolumeConsumed:     b.VolumeConsumed,
		MaterialCost:       b.MaterialCost,
		LaborCost:          b.LaborCost,
		OverheadCost:       b.OverheadCost,
		TotalCost:          b.TotalCost,
		UnitCost:           b.UnitCost,
		SellingPrice:       b.SellingPrice,
		DisplayCurrency:    b.DisplayCurrency,
		ConvertedTotalCost: b.ConvertedTotalCost,
		ConvertedUnitCost:  b.ConvertedUnitCost,
		ExchangeRate:       b.ExchangeRate,
		RateSource:         b.RateSource,
		ConvertedAt:        b.ConvertedAt,
		Status:             string(b.Status),
		OperatorID:         b.OperatorID,
		SupervisorID:       b.SupervisorID,
		ProductionDate:     b.ProductionDate,
		Notes:              b.Notes,
		StartTime:          b.StartTime,
		EndTime:            b.EndTime,
		DurationMinutes:    b.DurationMinutes,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.RateSource == currency.SourceFallback {
		resp.Warnings = append(resp.Warnings, apperror.CodeConversionDegraded)
	}

	return resp
}

type BatchListResponse struct {
	Items []*BatchResponse `json:"items"`
	ListMeta
}
