package dto

import (
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/material"
)

// --- Raw materials ---

type CreateMaterialRequest struct {
	Code     string `json:"code" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
	Unit     string `json:"unit" binding:"required"`

	CurrentStock  float64 `json:"currentStock" binding:"gte=0"`
	CostPerUnit   float64 `json:"costPerUnit" binding:"gte=0"`
	MinStockLevel float64 `json:"minStockLevel" binding:"gte=0"`
	ReorderPoint  float64 `json:"reorderPoint" binding:"gte=0"`
}

// ToEntity maps the DTO to a new raw material.
func (r *CreateMaterialRequest) ToEntity() *material.RawMaterial {
	m := material.NewRawMaterial(r.Code, r.Name, material.Category(r.Category), r.Unit)
	m.CurrentStock = types.NewQuantityFromFloat64(r.CurrentStock)
	m.CostPerUnit = types.NewMoney(r.CostPerUnit)
	m.MinStockLevel = types.NewQuantityFromFloat64(r.MinStockLevel)
	m.ReorderPoint = types.NewQuantityFromFloat64(r.ReorderPoint)
	return m
}

type UpdateMaterialRequest struct {
	Name          *string  `json:"name,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Unit          *string  `json:"unit,omitempty"`
	CostPerUnit   *float64 `json:"costPerUnit,omitempty"`
	MinStockLevel *float64 `json:"minStockLevel,omitempty"`
	ReorderPoint  *float64 `json:"reorderPoint,omitempty"`
}

// ApplyTo mutates the existing material with the provided fields.
func (r *UpdateMaterialRequest) ApplyTo(m *material.RawMaterial) {
	if r.Name != nil {
		m.Name = *r.Name
	}
	if r.Category != nil {
		m.Category = material.Category(*r.Category)
	}
	if r.Unit != nil {
		m.Unit = *r.Unit
	}
	if r.CostPerUnit != nil {
		m.CostPerUnit = types.NewMoney(*r.CostPerUnit)
	}
	if r.MinStockLevel != nil {
		m.MinStockLevel = types.NewQuantityFromFloat64(*r.MinStockLevel)
	}
	if r.ReorderPoint != nil {
		m.ReorderPoint = types.NewQuantityFromFloat64(*r.ReorderPoint)
	}
}
