package product

import (
	"context"
	"fmt"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
	"essentia/pkg/logger"
)

// Service provides business operations for finished products.
type Service struct {
	repo Repository
}

// NewService creates a new finished product service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Upsert creates or updates the product for a SKU.
// Must be called inside the batch transaction: the row lock taken here
// serializes concurrent upserts for the same SKU, so stock deltas are
// never lost.
//
// If the product exists, delta is added to its stock and prices are
// refreshed from the batch; otherwise a new product is created.
func (s *Service) Upsert(ctx context.Context, sku, name string, costPrice, sellingPrice types.Money, delta types.Quantity) (*FinishedProduct, error) {
	existing, err := s.repo.GetBySKUForUpdate(ctx, sku)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, fmt.Errorf("lock product %s: %w", sku, err)
		}

		p := NewFinishedProduct(sku, name)
		p.StockQuantity = delta
		p.CostPrice = costPrice
		p.SellingPrice = sellingPrice

		if err := s.repo.Create(ctx, p); err != nil {
			return nil, fmt.Errorf("create product %s: %w", sku, err)
		}

		logger.Info(ctx, "finished product created", "sku", sku, "stock", delta)
		return p, nil
	}

	if err := s.repo.UpdateStockAndPrices(ctx, existing.ID, delta, costPrice, sellingPrice); err != nil {
		return nil, fmt.Errorf("update product %s: %w", sku, err)
	}

	existing.StockQuantity += delta
	existing.CostPrice = costPrice
	existing.SellingPrice = sellingPrice

	return existing, nil
}

// RemoveStock decrements product stock, floored at zero.
// Used by batch cancellation to take back previously produced units.
// The removed quantity is computed from the locked row and returned,
// so the caller ledgers exactly what was taken even if a concurrent
// sale committed just before the lock was acquired.
func (s *Service) RemoveStock(ctx context.Context, sku string, quantity types.Quantity) (*FinishedProduct, types.Quantity, error) {
	p, err := s.repo.GetBySKUForUpdate(ctx, sku)
	if err != nil {
		return nil, 0, err
	}

	removed := quantity
	if removed > p.StockQuantity {
		// Some units may already have been sold; remove what is left.
		removed = p.StockQuantity
	}

	if err := s.repo.AdjustStock(ctx, p.ID, removed.Neg()); err != nil {
		return nil, 0, fmt.Errorf("adjust product stock %s: %w", sku, err)
	}

	p.StockQuantity -= removed
	return p, removed, nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*FinishedProduct, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*FinishedProduct, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// List retrieves products.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*FinishedProduct, error) {
	return s.repo.List(ctx, limit, offset)
}
