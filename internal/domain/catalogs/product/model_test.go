package product

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"essentia/internal/core/types"
)

func TestDeriveSKU(t *testing.T) {
	tests := []struct {
		name   string
		liquid string
		volume float64
		want   string
	}{
		{"simple", "Rose Oud", 0.05, "ROSE-50ML"},
		{"short name", "Iris", 0.1, "IRIS-100ML"},
		{"spaces and punctuation skipped", "L'Eau  de Nuit", 0.03, "LEAU-30ML"},
		{"digits kept", "No5 Classic", 0.05, "NO5C-50ML"},
		{"lowercase input", "amber noir", 0.015, "AMBE-15ML"},
		{"no usable characters", "---", 0.05, "PROD-50ML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveSKU(tt.liquid, types.NewQuantityFromFloat64(tt.volume))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveSKU_Deterministic(t *testing.T) {
	vol := types.NewQuantityFromFloat64(0.05)
	assert.Equal(t, DeriveSKU("Rose Oud", vol), DeriveSKU("Rose Oud", vol))
}

func TestProductName(t *testing.T) {
	assert.Equal(t, "Rose Oud 50ml", ProductName("Rose Oud", types.NewQuantityFromFloat64(0.05)))
}

func TestFinishedProduct_Validate(t *testing.T) {
	p := NewFinishedProduct("ROSE-50ML", "Rose Oud 50ml")
	assert.NoError(t, p.Validate(context.Background()))

	p.StockQuantity = types.NewQuantityFromInt(-1)
	assert.Error(t, p.Validate(context.Background()))

	p2 := NewFinishedProduct("", "No SKU")
	assert.Error(t, p2.Validate(context.Background()))
}
