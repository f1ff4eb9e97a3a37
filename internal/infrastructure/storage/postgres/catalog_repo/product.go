package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/product"
	"essentia/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

var productColumns = []string{
	"id", "version", "code", "name", "sku",
	"stock_quantity", "cost_price", "selling_price",
}

// ProductRepo implements product.Repository.
type ProductRepo struct {
	tm      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewProductRepo creates a new finished product repository.
func NewProductRepo(tm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		tm:      tm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new product. The unique index on sku rejects
// concurrent first-time creation that slipped past the row lock.
func (r *ProductRepo) Create(ctx context.Context, p *product.FinishedProduct) error {
	q := r.builder.Insert(productTable).
		Columns(productColumns...).
		Values(p.ID, p.Version, p.Code, p.Name, p.SKU,
			p.StockQuantity, p.CostPrice, p.SellingPrice)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product.
func (r *ProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.FinishedProduct, error) {
	q := r.builder.Select(productColumns...).
		From(productTable).
		Where(squirrel.Eq{"id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.FinishedProduct
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return &p, nil
}

// GetBySKU retrieves a product by SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*product.FinishedProduct, error) {
	q := r.builder.Select(productColumns...).
		From(productTable).
		Where(squirrel.Eq{"sku": sku}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p product.FinishedProduct
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, fmt.Errorf("get product by sku: %w", err)
	}

	return &p, nil
}

// GetBySKUForUpdate retrieves a product by SKU with a row-level lock.
func (r *ProductRepo) GetBySKUForUpdate(ctx context.Context, sku string) (*product.FinishedProduct, error) {
	sql := `
		SELECT id, version, code, name, sku,
		       stock_quantity, cost_price, selling_price
		FROM cat_products
		WHERE sku = $1
		FOR UPDATE
	`

	var p product.FinishedProduct
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &p, sql, sku); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", sku)
		}
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	return &p, nil
}

// UpdateStockAndPrices adds delta to stock and refreshes prices.
func (r *ProductRepo) UpdateStockAndPrices(ctx context.Context, productID id.ID, delta types.Quantity, costPrice, sellingPrice types.Money) error {
	sql := `
		UPDATE cat_products
		SET stock_quantity = stock_quantity + $2,
		    cost_price = $3,
		    selling_price = $4,
		    version = version + 1
		WHERE id = $1 AND stock_quantity + $2 >= 0
	`

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, productID, delta, costPrice, sellingPrice)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.stockRefused(ctx, productID, delta)
	}

	return nil
}

// AdjustStock applies a signed delta to stock_quantity.
func (r *ProductRepo) AdjustStock(ctx context.Context, productID id.ID, delta types.Quantity) error {
	sql := `
		UPDATE cat_products
		SET stock_quantity = stock_quantity + $2,
		    version = version + 1
		WHERE id = $1 AND stock_quantity + $2 >= 0
	`

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, productID, delta)
	if err != nil {
		return fmt.Errorf("adjust product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.stockRefused(ctx, productID, delta)
	}

	return nil
}

// stockRefused reports a conditional update that matched no row: the
// product is either gone or too short on stock for the delta.
func (r *ProductRepo) stockRefused(ctx context.Context, productID id.ID, delta types.Quantity) error {
	var available types.Quantity
	err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &available,
		`SELECT stock_quantity FROM cat_products WHERE id = $1`, productID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound("product", productID)
		}
		return fmt.Errorf("read stock balance: %w", err)
	}
	return stockShortfall(productID, delta, available)
}

// List retrieves products.
func (r *ProductRepo) List(ctx context.Context, limit, offset int) ([]*product.FinishedProduct, error) {
	q := r.builder.Select(productColumns...).
		From(productTable).
		OrderBy("sku")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var products []*product.FinishedProduct
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}

	return products, nil
}

var _ product.Repository = (*ProductRepo)(nil)
