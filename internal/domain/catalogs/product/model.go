// Package product provides the FinishedProduct catalog.
// Finished products are the sellable output of bottling batches,
// keyed by a deterministic SKU so repeated batches of the same liquid
// and size accumulate into one product record.
package product

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/types"
)

// FinishedProduct represents a sellable bottled product.
//
// StockQuantity, CostPrice and SellingPrice are updated transactionally
// with production: the sales side never observes a batch half-applied.
type FinishedProduct struct {
	entity.Catalog

	// SKU is unique; derived from bulk liquid name and bottle volume
	SKU string `db:"sku" json:"sku"`

	// StockQuantity is the sellable balance
	StockQuantity types.Quantity `db:"stock_quantity" json:"stockQuantity"`

	// CostPrice is the per-unit production cost of the latest batch
	CostPrice types.Money `db:"cost_price" json:"costPrice"`

	// SellingPrice is the per-unit price of the latest batch
	SellingPrice types.Money `db:"selling_price" json:"sellingPrice"`
}

// NewFinishedProduct creates a finished product with required fields.
func NewFinishedProduct(sku, name string) *FinishedProduct {
	return &FinishedProduct{
		Catalog: entity.NewCatalog(sku, name),
		SKU:     sku,
	}
}

// Validate implements entity.Validatable.
func (p *FinishedProduct) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SKU == "" {
		return apperror.NewValidation("sku is required").
			WithDetail("field", "sku")
	}

	if p.StockQuantity.IsNegative() {
		return apperror.NewValidation("stock quantity cannot be negative").
			WithDetail("field", "stockQuantity")
	}

	return nil
}

// skuPrefixLen is the number of name characters used in the SKU prefix.
const skuPrefixLen = 4

// DeriveSKU builds the deterministic SKU for a bulk liquid and bottle
// volume. Same inputs always produce the same SKU, so batches of the
// same liquid and size upsert into one product instead of duplicating.
// Pattern: first letters of the normalized liquid name + volume in ml,
// e.g. "Rose Oud" at 0.05 L -> "ROSE-50ML".
func DeriveSKU(liquidName string, volumePerUnit types.Quantity) string {
	var prefix strings.Builder
	for _, r := range liquidName {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			prefix.WriteRune(unicode.ToUpper(r))
			if prefix.Len() >= skuPrefixLen {
				break
			}
		}
	}
	if prefix.Len() == 0 {
		prefix.WriteString("PROD")
	}

	// Quantity is scaled 1e4 and volume is in liters: scaled/10 = ml.
	volumeML := volumePerUnit.Int64Scaled() / 10

	return fmt.Sprintf("%s-%dML", prefix.String(), volumeML)
}

// ProductName builds the display name used when the upsert creates a
// new product for a batch.
func ProductName(liquidName string, volumePerUnit types.Quantity) string {
	volumeML := volumePerUnit.Int64Scaled() / 10
	return fmt.Sprintf("%s %dml", liquidName, volumeML)
}
