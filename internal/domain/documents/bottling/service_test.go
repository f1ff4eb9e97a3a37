package bottling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/internal/core/numerator"
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/bulkliquid"
	"essentia/internal/domain/catalogs/material"
	"essentia/internal/domain/catalogs/product"
	"essentia/internal/domain/catalogs/recipe"
	"essentia/internal/domain/costing"
	"essentia/internal/domain/currency"
	"essentia/internal/domain/registers/ledger"
)

// --- In-memory fakes ---

// passthroughTx runs the function directly; the engine's all-checks-
// before-any-write ordering is what these tests exercise.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeBatchRepo struct {
	batches map[id.ID]*BottlingBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[id.ID]*BottlingBatch)}
}

func (r *fakeBatchRepo) Create(ctx context.Context, b *BottlingBatch) error {
	r.batches[b.ID] = b
	return nil
}

func (r *fakeBatchRepo) Update(ctx context.Context, b *BottlingBatch) error {
	if _, ok := r.batches[b.ID]; !ok {
		return apperror.NewNotFound("bottling batch", b.ID)
	}
	r.batches[b.ID] = b
	return nil
}

// Reads return copies, like a fresh row scan would; only Create,
// Update and the Adjust methods touch the stored state.
func (r *fakeBatchRepo) GetByID(ctx context.Context, batchID id.ID) (*BottlingBatch, error) {
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("bottling batch", batchID)
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBatchRepo) GetForUpdate(ctx context.Context, batchID id.ID) (*BottlingBatch, error) {
	return r.GetByID(ctx, batchID)
}

func (r *fakeBatchRepo) List(ctx context.Context, filter ListFilter) ([]*BottlingBatch, error) {
	out := make([]*BottlingBatch, 0, len(r.batches))
	for _, b := range r.batches {
		out = append(out, b)
	}
	return out, nil
}

type fakeMaterialRepo struct {
	materials map[id.ID]*material.RawMaterial
}

func newFakeMaterialRepo() *fakeMaterialRepo {
	return &fakeMaterialRepo{materials: make(map[id.ID]*material.RawMaterial)}
}

func (r *fakeMaterialRepo) Create(ctx context.Context, m *material.RawMaterial) error {
	r.materials[m.ID] = m
	return nil
}

func (r *fakeMaterialRepo) Update(ctx context.Context, m *material.RawMaterial) error {
	r.materials[m.ID] = m
	return nil
}

func (r *fakeMaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	m, ok := r.materials[materialID]
	if !ok {
		return nil, apperror.NewNotFound("material", materialID)
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*material.RawMaterial, error) {
	return r.GetByID(ctx, materialID)
}

func (r *fakeMaterialRepo) AdjustStock(ctx context.Context, materialID id.ID, delta types.Quantity) error {
	m, ok := r.materials[materialID]
	if !ok {
		return apperror.NewNotFound("material", materialID)
	}
	if m.CurrentStock+delta < 0 {
		return apperror.NewInsufficientStock(materialID.String(),
			delta.Abs().Float64(), m.CurrentStock.Float64())
	}
	m.CurrentStock += delta
	return nil
}

func (r *fakeMaterialRepo) List(ctx context.Context, filter material.ListFilter) ([]*material.RawMaterial, error) {
	return nil, nil
}

type fakeLiquidRepo struct {
	liquids map[id.ID]*bulkliquid.BulkLiquid
}

func newFakeLiquidRepo() *fakeLiquidRepo {
	return &fakeLiquidRepo{liquids: make(map[id.ID]*bulkliquid.BulkLiquid)}
}

func (r *fakeLiquidRepo) Create(ctx context.Context, b *bulkliquid.BulkLiquid) error {
	r.liquids[b.ID] = b
	return nil
}

func (r *fakeLiquidRepo) Update(ctx context.Context, b *bulkliquid.BulkLiquid) error {
	r.liquids[b.ID] = b
	return nil
}

func (r *fakeLiquidRepo) GetByID(ctx context.Context, liquidID id.ID) (*bulkliquid.BulkLiquid, error) {
	b, ok := r.liquids[liquidID]
	if !ok {
		return nil, apperror.NewNotFound("bulk liquid", liquidID)
	}
	cp := *b
	return &cp, nil
}

func (r *fakeLiquidRepo) GetForUpdate(ctx context.Context, liquidID id.ID) (*bulkliquid.BulkLiquid, error) {
	return r.GetByID(ctx, liquidID)
}

func (r *fakeLiquidRepo) AdjustVolume(ctx context.Context, liquidID id.ID, delta types.Quantity) error {
	b, ok := r.liquids[liquidID]
	if !ok {
		return apperror.NewNotFound("bulk liquid", liquidID)
	}
	if b.BulkQuantity+delta < 0 {
		return apperror.NewInsufficientStock(liquidID.String(),
			delta.Abs().Float64(), b.BulkQuantity.Float64())
	}
	b.BulkQuantity += delta
	return nil
}

func (r *fakeLiquidRepo) List(ctx context.Context, limit, offset int) ([]*bulkliquid.BulkLiquid, error) {
	return nil, nil
}

type fakeRecipeRepo struct {
	recipes map[id.ID]*recipe.Recipe
	lines   map[id.ID][]recipe.Line
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{
		recipes: make(map[id.ID]*recipe.Recipe),
		lines:   make(map[id.ID][]recipe.Line),
	}
}

func (r *fakeRecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	r.recipes[rec.ID] = rec
	return nil
}

func (r *fakeRecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	r.recipes[rec.ID] = rec
	return nil
}

func (r *fakeRecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	rec, ok := r.recipes[recipeID]
	if !ok {
		return nil, apperror.NewNotFound("recipe", recipeID)
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeRecipeRepo) GetLines(ctx context.Context, recipeID id.ID) ([]recipe.Line, error) {
	return r.lines[recipeID], nil
}

func (r *fakeRecipeRepo) SaveLines(ctx context.Context, recipeID id.ID, lines []recipe.Line) error {
	r.lines[recipeID] = lines
	return nil
}

func (r *fakeRecipeRepo) List(ctx context.Context, limit, offset int) ([]*recipe.Recipe, error) {
	return nil, nil
}

type fakeProductRepo struct {
	products map[string]*product.FinishedProduct

	// beforeLock runs at the start of GetBySKUForUpdate, standing in
	// for a concurrent writer that commits before the lock is granted.
	beforeLock func()
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*product.FinishedProduct)}
}

func (r *fakeProductRepo) get(productID id.ID) *product.FinishedProduct {
	for _, p := range r.products {
		if p.ID == productID {
			return p
		}
	}
	return nil
}

func (r *fakeProductRepo) GetByID(ctx context.Context, productID id.ID) (*product.FinishedProduct, error) {
	p := r.get(productID)
	if p == nil {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetBySKU(ctx context.Context, sku string) (*product.FinishedProduct, error) {
	p, ok := r.products[sku]
	if !ok {
		return nil, apperror.NewNotFound("product", sku)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) GetBySKUForUpdate(ctx context.Context, sku string) (*product.FinishedProduct, error) {
	if r.beforeLock != nil {
		r.beforeLock()
	}
	return r.GetBySKU(ctx, sku)
}

func (r *fakeProductRepo) Create(ctx context.Context, p *product.FinishedProduct) error {
	r.products[p.SKU] = p
	return nil
}

func (r *fakeProductRepo) UpdateStockAndPrices(ctx context.Context, productID id.ID, delta types.Quantity, costPrice, sellingPrice types.Money) error {
	p := r.get(productID)
	if p == nil {
		return apperror.NewNotFound("product", productID)
	}
	if p.StockQuantity+delta < 0 {
		return apperror.NewInsufficientStock(productID.String(),
			delta.Abs().Float64(), p.StockQuantity.Float64())
	}
	p.StockQuantity += delta
	p.CostPrice = costPrice
	p.SellingPrice = sellingPrice
	return nil
}

func (r *fakeProductRepo) AdjustStock(ctx context.Context, productID id.ID, delta types.Quantity) error {
	p := r.get(productID)
	if p == nil {
		return apperror.NewNotFound("product", productID)
	}
	if p.StockQuantity+delta < 0 {
		return apperror.NewInsufficientStock(productID.String(),
			delta.Abs().Float64(), p.StockQuantity.Float64())
	}
	p.StockQuantity += delta
	return nil
}

func (r *fakeProductRepo) List(ctx context.Context, limit, offset int) ([]*product.FinishedProduct, error) {
	return nil, nil
}

type fakeLedgerRepo struct {
	entries []entity.LedgerEntry
}

func (r *fakeLedgerRepo) CreateEntries(ctx context.Context, entries []entity.LedgerEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func (r *fakeLedgerRepo) GetEntriesByBatch(ctx context.Context, batchID id.ID) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for _, e := range r.entries {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) GetEntriesByBatchAndType(ctx context.Context, batchID id.ID, txType entity.TransactionType) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for _, e := range r.entries {
		if e.BatchID == batchID && e.TxType == txType {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeLedgerRepo) GetNetByBatch(ctx context.Context, batchID id.ID) ([]ledger.NetPosition, error) {
	net := make(map[id.ID]*ledger.NetPosition)
	for i := range r.entries {
		e := &r.entries[i]
		if e.BatchID != batchID {
			continue
		}
		pos, ok := net[e.MaterialID]
		if !ok {
			pos = &ledger.NetPosition{MaterialID: e.MaterialID}
			net[e.MaterialID] = pos
		}
		pos.NetQuantity += e.SignedQuantity()
		pos.NetValue = pos.NetValue.Add(e.SignedValue())
	}
	out := make([]ledger.NetPosition, 0, len(net))
	for _, pos := range net {
		out = append(out, *pos)
	}
	return out, nil
}

func (r *fakeLedgerRepo) GetHistory(ctx context.Context, materialID id.ID, filter ledger.HistoryFilter) ([]entity.LedgerEntry, error) {
	var out []entity.LedgerEntry
	for _, e := range r.entries {
		if e.MaterialID == materialID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubConverter struct {
	rate   types.Money
	source string
	err    error
}

func (s *stubConverter) Convert(ctx context.Context, amount types.Money, from, to string) (*currency.Conversion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &currency.Conversion{
		Amount: amount.Mul(s.rate),
		Rate:   s.rate,
		From:   from,
		To:     to,
		Source: s.source,
	}, nil
}

// --- Fixture ---

type engineFixture struct {
	service   *Service
	batches   *fakeBatchRepo
	materials *fakeMaterialRepo
	liquids   *fakeLiquidRepo
	products  *fakeProductRepo
	entries   *fakeLedgerRepo
	converter *stubConverter

	rec    *recipe.Recipe
	liquid *bulkliquid.BulkLiquid
	bottle *material.RawMaterial
	cap    *material.RawMaterial
}

// newEngineFixture wires the engine over in-memory stores: a 2-line
// recipe for a 50ml bottle, 1000 pcs of each material and 100L of
// liquid at 40/L.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		batches:   newFakeBatchRepo(),
		materials: newFakeMaterialRepo(),
		liquids:   newFakeLiquidRepo(),
		products:  newFakeProductRepo(),
		entries:   &fakeLedgerRepo{},
		converter: &stubConverter{rate: types.MustMoney("0.9"), source: currency.SourceLive},
	}

	ctx := context.Background()

	f.bottle = material.NewRawMaterial("BTL-50", "Bottle 50ml", material.CategoryBottle, "pcs")
	f.bottle.CostPerUnit = types.MustMoney("0.80")
	f.bottle.CurrentStock = types.NewQuantityFromInt(1000)
	require.NoError(t, f.materials.Create(ctx, f.bottle))

	f.cap = material.NewRawMaterial("CAP-STD", "Standard Cap", material.CategoryCap, "pcs")
	f.cap.CostPerUnit = types.MustMoney("0.20")
	f.cap.CurrentStock = types.NewQuantityFromInt(1000)
	require.NoError(t, f.materials.Create(ctx, f.cap))

	f.liquid = bulkliquid.NewBulkLiquid("ROSE", "Rose Oud")
	f.liquid.BulkQuantity = types.NewQuantityFromInt(100)
	f.liquid.CostPerLiter = types.MustMoney("40")
	require.NoError(t, f.liquids.Create(ctx, f.liquid))

	recipeRepo := newFakeRecipeRepo()
	f.rec = recipe.NewRecipe("REC-50", "Classic 50ml", types.NewQuantityFromFloat64(0.05))
	f.rec.AddLine(f.bottle.ID, types.NewQuantityFromInt(1))
	f.rec.AddLine(f.cap.ID, types.NewQuantityFromInt(1))
	require.NoError(t, recipeRepo.Create(ctx, f.rec))
	require.NoError(t, recipeRepo.SaveLines(ctx, f.rec.ID, f.rec.Lines))

	numGen := &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			return "BB-2026-00001", nil
		},
	}

	f.service = NewService(
		f.batches,
		recipe.NewService(recipeRepo, passthroughTx{}),
		f.materials,
		f.liquids,
		product.NewService(f.products),
		ledger.NewService(f.entries),
		costing.NewCalculator(costing.DefaultConfig()),
		f.converter,
		numGen,
		passthroughTx{},
		DefaultConfig(),
	)

	return f
}

func (f *engineFixture) createRequest() CreateRequest {
	return CreateRequest{
		RecipeID:          f.rec.ID,
		BulkLiquidID:      f.liquid.ID,
		QuantityPlanned:   types.NewQuantityFromInt(60),
		QuantityProduced:  types.NewQuantityFromInt(60),
		QuantityDefective: types.NewQuantityFromInt(10),
		OperatorID:        "op-1",
	}
}

// --- Create ---

func TestCreate_PostsBatchAtomically(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	assert.Equal(t, "BB-2026-00001", batch.Number)
	assert.Equal(t, StatusPlanned, batch.Status)
	assert.Equal(t, "ROSE-50ML", batch.SKU)

	// Stock consumed: 60 of each material, 3L of liquid
	assert.Equal(t, types.NewQuantityFromInt(940), f.bottle.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(940), f.cap.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(97), f.liquid.BulkQuantity)

	// Costs: materials 60+120 liquid = 180, labor 45, overhead 33.75
	assert.True(t, batch.MaterialCost.Equal(types.MustMoney("180")), "material cost: %s", batch.MaterialCost)
	assert.True(t, batch.LaborCost.Equal(types.MustMoney("45")), "labor cost: %s", batch.LaborCost)
	assert.True(t, batch.TotalCost.Equal(types.MustMoney("258.75")), "total cost: %s", batch.TotalCost)
	assert.True(t, batch.UnitCost.Equal(types.MustMoney("4.3125")), "unit cost: %s", batch.UnitCost)

	// Default 50% margin
	assert.True(t, batch.SellingPrice.Equal(types.MustMoney("6.46875")), "selling price: %s", batch.SellingPrice)

	// Finished product upserted with sellable quantity (60 - 10)
	prod, err := f.products.GetBySKU(ctx, "ROSE-50ML")
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromInt(50), prod.StockQuantity)
	assert.True(t, prod.CostPrice.Equal(batch.UnitCost))

	// Ledger: one consumption per line plus one production_in
	entries, err := f.entries.GetEntriesByBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.True(t, e.Quantity.IsPositive(), "ledger quantities are stored positive")
	}

	consumptions, _ := f.entries.GetEntriesByBatchAndType(ctx, batch.ID, entity.TxTypeConsumption)
	assert.Len(t, consumptions, 2)
	produced, _ := f.entries.GetEntriesByBatchAndType(ctx, batch.ID, entity.TxTypeProductionIn)
	require.Len(t, produced, 1)
	assert.Equal(t, prod.ID, produced[0].MaterialID)
	assert.Equal(t, types.NewQuantityFromInt(50), produced[0].Quantity)
}

func TestCreate_ConvertsDisplayFigures(t *testing.T) {
	f := newEngineFixture(t)

	req := f.createRequest()
	req.DisplayCurrency = "EUR"

	batch, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "EUR", batch.DisplayCurrency)
	assert.Equal(t, currency.SourceLive, batch.RateSource)
	require.NotNil(t, batch.ConvertedTotalCost)
	assert.True(t, batch.ConvertedTotalCost.Equal(types.MustMoney("232.875")),
		"converted total: %s", batch.ConvertedTotalCost)
	require.NotNil(t, batch.ExchangeRate)
	assert.True(t, batch.ExchangeRate.Equal(types.MustMoney("0.9")))
}

func TestCreate_ConversionFailureDegradesNotAborts(t *testing.T) {
	f := newEngineFixture(t)
	f.converter.err = errors.New("provider down")

	req := f.createRequest()
	req.DisplayCurrency = "EUR"

	batch, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)

	// Base figures are final; the display snapshot is simply absent.
	assert.True(t, batch.TotalCost.Equal(types.MustMoney("258.75")))
	assert.Nil(t, batch.ConvertedTotalCost)
	assert.Nil(t, batch.ExchangeRate)
	assert.Empty(t, batch.RateSource)
}

func TestCreate_FallbackRateIsFlagged(t *testing.T) {
	f := newEngineFixture(t)
	f.converter.rate = types.MustMoney("1")
	f.converter.source = currency.SourceFallback

	req := f.createRequest()
	req.DisplayCurrency = "EUR"

	batch, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, currency.SourceFallback, batch.RateSource)
	require.NotNil(t, batch.ConvertedTotalCost)
}

func TestCreate_InsufficientMaterialStockChangesNothing(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()
	f.cap.CurrentStock = types.NewQuantityFromInt(10)

	_, err := f.service.Create(ctx, f.createRequest())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// No partial effects: checks run before any write
	assert.Equal(t, types.NewQuantityFromInt(1000), f.bottle.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(10), f.cap.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(100), f.liquid.BulkQuantity)
	assert.Empty(t, f.batches.batches)
	assert.Empty(t, f.entries.entries)
	assert.Empty(t, f.products.products)
}

func TestCreate_InsufficientBulkVolumeChangesNothing(t *testing.T) {
	f := newEngineFixture(t)
	f.liquid.BulkQuantity = types.NewQuantityFromInt(1) // need 3L

	_, err := f.service.Create(context.Background(), f.createRequest())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Equal(t, types.NewQuantityFromInt(1000), f.bottle.CurrentStock)
	assert.Empty(t, f.batches.batches)
	assert.Empty(t, f.entries.entries)
}

func TestCreate_MarginOverride(t *testing.T) {
	f := newEngineFixture(t)

	margin := types.MustMoney("100")
	req := f.createRequest()
	req.MarginPercent = &margin

	batch, err := f.service.Create(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, batch.SellingPrice.Equal(types.MustMoney("8.625")),
		"selling price: %s", batch.SellingPrice)
}

// --- Advance ---

func TestAdvance(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	advanced, err := f.service.Advance(ctx, batch.ID, StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, advanced.Status)
	assert.NotNil(t, advanced.StartTime)

	// Skipping a step is rejected and nothing is persisted
	_, err = f.service.Advance(ctx, batch.ID, StatusCompleted)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	stored, err := f.service.GetByID(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, stored.Status)
}

// --- Cancel ---

func TestCancel_RestoresAllStock(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	cancelled, err := f.service.Cancel(ctx, batch.ID, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Everything back where it started
	assert.Equal(t, types.NewQuantityFromInt(1000), f.bottle.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(1000), f.cap.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(100), f.liquid.BulkQuantity)

	prod, err := f.products.GetBySKU(ctx, "ROSE-50ML")
	require.NoError(t, err)
	assert.True(t, prod.StockQuantity.IsZero())

	// Reversals replay the consumptions at their original unit cost
	reversals, _ := f.entries.GetEntriesByBatchAndType(ctx, batch.ID, entity.TxTypeReversalIn)
	require.Len(t, reversals, 2)
	for _, rev := range reversals {
		m, err := f.materials.GetByID(ctx, rev.MaterialID)
		require.NoError(t, err)
		assert.True(t, rev.UnitCost.Equal(m.CostPerUnit))
		assert.Equal(t, types.NewQuantityFromInt(60), rev.Quantity)
	}

	// The batch nets to zero on every material and the product
	net, err := f.entries.GetNetByBatch(ctx, batch.ID)
	require.NoError(t, err)
	require.Len(t, net, 3)
	for _, pos := range net {
		assert.True(t, pos.NetQuantity.IsZero(), "net quantity for %s: %s", pos.MaterialID, pos.NetQuantity)
		assert.True(t, pos.NetValue.IsZero(), "net value for %s: %s", pos.MaterialID, pos.NetValue)
	}
}

func TestCancel_ReplaysLedgerNotCurrentRecipe(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	// Edit the recipe after the batch was posted: double every line.
	edited := *f.rec
	edited.Lines = nil
	for _, line := range f.rec.Lines {
		edited.Lines = append(edited.Lines, recipe.Line{
			LineID:          line.LineID,
			LineNo:          line.LineNo,
			MaterialID:      line.MaterialID,
			QuantityPerUnit: line.QuantityPerUnit * 2,
		})
	}
	require.NoError(t, f.service.recipes.Update(ctx, &edited))

	_, err = f.service.Cancel(ctx, batch.ID, "supervisor-1")
	require.NoError(t, err)

	// Restored exactly what was consumed, not what the edited recipe says
	assert.Equal(t, types.NewQuantityFromInt(1000), f.bottle.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(1000), f.cap.CurrentStock)
}

func TestCancel_PartiallySoldProduct(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	// 20 of the 50 sellable units have been sold in the meantime.
	f.products.products["ROSE-50ML"].StockQuantity = types.NewQuantityFromInt(30)

	_, err = f.service.Cancel(ctx, batch.ID, "supervisor-1")
	require.NoError(t, err)

	// Product floored at zero; reversal records what was actually removed
	prod, err := f.products.GetBySKU(ctx, "ROSE-50ML")
	require.NoError(t, err)
	assert.True(t, prod.StockQuantity.IsZero())
	removals, _ := f.entries.GetEntriesByBatchAndType(ctx, batch.ID, entity.TxTypeProductionOutReversal)
	require.Len(t, removals, 1)
	assert.Equal(t, types.NewQuantityFromInt(30), removals[0].Quantity)

	// Materials are still fully restored
	assert.Equal(t, types.NewQuantityFromInt(1000), f.bottle.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(1000), f.cap.CurrentStock)
}

func TestCancel_SaleCommitsBeforeLock(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	// A sale of 20 units commits after cancellation starts but before
	// it acquires the product row lock.
	f.products.beforeLock = func() {
		f.products.beforeLock = nil
		f.products.products["ROSE-50ML"].StockQuantity -= types.NewQuantityFromInt(20)
	}

	_, err = f.service.Cancel(ctx, batch.ID, "supervisor-1")
	require.NoError(t, err)

	// The reversal records the 30 units seen under the lock, not the 50
	// the batch produced.
	removals, _ := f.entries.GetEntriesByBatchAndType(ctx, batch.ID, entity.TxTypeProductionOutReversal)
	require.Len(t, removals, 1)
	assert.Equal(t, types.NewQuantityFromInt(30), removals[0].Quantity)

	prod, err := f.products.GetBySKU(ctx, "ROSE-50ML")
	require.NoError(t, err)
	assert.True(t, prod.StockQuantity.IsZero())
}

func TestCancel_AlreadyCancelled(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, batch.ID, "supervisor-1")
	require.NoError(t, err)

	_, err = f.service.Cancel(ctx, batch.ID, "supervisor-1")
	require.Error(t, err)
	assert.True(t, apperror.IsBatchCancelled(err))

	// Stock is not restored twice
	assert.Equal(t, types.NewQuantityFromInt(1000), f.bottle.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(100), f.liquid.BulkQuantity)
}

func TestCancel_CompletedBatch(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)

	for _, target := range []Status{StatusInProgress, StatusQualityCheck, StatusPackaged, StatusCompleted} {
		_, err = f.service.Advance(ctx, batch.ID, target)
		require.NoError(t, err)
	}

	_, err = f.service.Cancel(ctx, batch.ID, "supervisor-1")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "BATCH_COMPLETED", appErr.Code)

	// The completed batch keeps its stock effects
	assert.Equal(t, types.NewQuantityFromInt(940), f.bottle.CurrentStock)
	assert.Equal(t, types.NewQuantityFromInt(97), f.liquid.BulkQuantity)
}

// --- Update / Ledger ---

func TestUpdate_MutableFieldsOnly(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	batch, err := f.service.Create(ctx, f.createRequest())
	require.NoError(t, err)
	originalCost := batch.TotalCost

	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	notes := "rescheduled"
	updated, err := f.service.Update(ctx, batch.ID, UpdateRequest{
		ProductionDate: &date,
		Notes:          &notes,
	})
	require.NoError(t, err)

	assert.Equal(t, date, updated.ProductionDate)
	assert.Equal(t, notes, updated.Notes)
	assert.True(t, updated.TotalCost.Equal(originalCost))
}

func TestLedger_UnknownBatch(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.service.Ledger(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}
