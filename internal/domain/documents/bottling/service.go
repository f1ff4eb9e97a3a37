package bottling

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/internal/core/numerator"
	"essentia/internal/core/tx"
	"essentia/internal/core/types"
	"essentia/internal/domain/catalogs/bulkliquid"
	"essentia/internal/domain/catalogs/material"
	"essentia/internal/domain/catalogs/product"
	"essentia/internal/domain/catalogs/recipe"
	"essentia/internal/domain/costing"
	"essentia/internal/domain/currency"
	"essentia/internal/domain/registers/ledger"
	"essentia/pkg/logger"
)

// numberPrefix for generated batch numbers, e.g. BB-2026-00042.
const numberPrefix = "BB"

// Config holds engine parameters.
type Config struct {
	// BaseCurrency is the currency all costs are captured in
	BaseCurrency string

	// DisplayCurrency for the converted snapshot on the batch
	DisplayCurrency string

	// MarginPercent sets the default selling price:
	// unit cost * (1 + margin/100)
	MarginPercent types.Money
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BaseCurrency:    "USD",
		DisplayCurrency: "USD",
		MarginPercent:   types.MustMoney("50"),
	}
}

// CreateRequest carries the input for a new batch.
type CreateRequest struct {
	RecipeID     id.ID
	BulkLiquidID id.ID

	QuantityPlanned   types.Quantity
	QuantityProduced  types.Quantity
	QuantityDefective types.Quantity

	OperatorID   string
	SupervisorID string

	ProductionDate time.Time
	Notes          string

	// MarginPercent overrides the engine default when set
	MarginPercent *types.Money

	// DisplayCurrency overrides the engine default when set
	DisplayCurrency string
}

// Service is the batch lifecycle engine. Create and Cancel run as one
// transaction each: stock, ledger, product and batch writes either all
// land or none do.
type Service struct {
	repo       Repository
	recipes    *recipe.Service
	materials  material.Repository
	liquids    bulkliquid.Repository
	products   *product.Service
	ledger     *ledger.Service
	calculator *costing.Calculator
	converter  currency.Converter
	numerator  numerator.Generator
	txManager  tx.Manager
	cfg        Config
}

// NewService creates the lifecycle engine.
func NewService(
	repo Repository,
	recipes *recipe.Service,
	materials material.Repository,
	liquids bulkliquid.Repository,
	products *product.Service,
	ledgerSvc *ledger.Service,
	calculator *costing.Calculator,
	converter currency.Converter,
	numGen numerator.Generator,
	txManager tx.Manager,
	cfg Config,
) *Service {
	return &Service{
		repo:       repo,
		recipes:    recipes,
		materials:  materials,
		liquids:    liquids,
		products:   products,
		ledger:     ledgerSvc,
		calculator: calculator,
		converter:  converter,
		numerator:  numGen,
		txManager:  txManager,
		cfg:        cfg,
	}
}

// Create runs a full production posting in a single transaction:
// lock and check every input, then consume materials and bulk liquid,
// write ledger entries and upsert the finished product. Any failure
// rolls back everything.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*BottlingBatch, error) {
	batch := NewBottlingBatch(req.RecipeID, req.BulkLiquidID,
		req.QuantityPlanned, req.QuantityProduced, req.QuantityDefective)
	batch.OperatorID = req.OperatorID
	batch.SupervisorID = req.SupervisorID
	batch.Notes = req.Notes
	if !req.ProductionDate.IsZero() {
		batch.ProductionDate = req.ProductionDate
	}

	if err := batch.Validate(ctx); err != nil {
		return nil, err
	}

	rec, err := s.recipes.Resolve(ctx, req.RecipeID)
	if err != nil {
		return nil, err
	}

	number, err := s.numerator.GetNextNumber(ctx,
		numerator.DefaultConfig(numberPrefix),
		&numerator.Options{Strategy: numerator.StrategyStrict},
		time.Now())
	if err != nil {
		return nil, fmt.Errorf("generate number: %w", err)
	}
	batch.Number = number

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		liquid, err := s.liquids.GetForUpdate(ctx, req.BulkLiquidID)
		if err != nil {
			return err
		}

		// Lock every material row in a deterministic order so two
		// concurrent batches sharing materials never deadlock.
		materials, err := s.lockMaterials(ctx, rec.Lines)
		if err != nil {
			return err
		}

		// All stock checks happen before any write.
		requiredVolume := rec.VolumePerUnit.Mul(batch.QuantityProduced)
		if requiredVolume > liquid.BulkQuantity {
			return apperror.NewInsufficientStock(liquid.ID.String(),
				requiredVolume.Float64(), liquid.BulkQuantity.Float64())
		}
		for _, line := range rec.Lines {
			required := line.QuantityPerUnit.Mul(batch.QuantityProduced)
			m := materials[line.MaterialID]
			if required > m.CurrentStock {
				return apperror.NewInsufficientStock(m.ID.String(),
					required.Float64(), m.CurrentStock.Float64())
			}
		}

		breakdown, err := s.calculator.Calculate(ctx, rec, batch.QuantityProduced, liquid, materials)
		if err != nil {
			return err
		}
		s.applyCosts(batch, breakdown, req.MarginPercent)
		s.applyConversion(ctx, batch, req.DisplayCurrency)

		batch.SKU = product.DeriveSKU(liquid.Name, rec.VolumePerUnit)

		if err := s.repo.Create(ctx, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}

		entries := make([]entity.LedgerEntry, 0, len(rec.Lines)+1)
		for _, line := range rec.Lines {
			consumed := line.QuantityPerUnit.Mul(batch.QuantityProduced)
			m := materials[line.MaterialID]

			if err := s.materials.AdjustStock(ctx, m.ID, consumed.Neg()); err != nil {
				return fmt.Errorf("consume material %s: %w", m.Code, err)
			}
			entries = append(entries, entity.NewLedgerEntry(
				batch.ID, m.ID, entity.TxTypeConsumption,
				consumed, m.CostPerUnit, req.OperatorID))
		}

		if err := s.liquids.AdjustVolume(ctx, liquid.ID, batch.VolumeConsumed.Neg()); err != nil {
			return fmt.Errorf("consume bulk liquid %s: %w", liquid.Code, err)
		}

		sellable := batch.SellableQuantity()
		prod, err := s.products.Upsert(ctx, batch.SKU,
			product.ProductName(liquid.Name, rec.VolumePerUnit),
			batch.UnitCost, batch.SellingPrice, sellable)
		if err != nil {
			return err
		}

		if sellable.IsPositive() {
			entries = append(entries, entity.NewLedgerEntry(
				batch.ID, prod.ID, entity.TxTypeProductionIn,
				sellable, batch.UnitCost, req.OperatorID))
		}

		return s.ledger.Record(ctx, entries)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bottling batch created",
		"id", batch.ID,
		"number", batch.Number,
		"sku", batch.SKU,
		"produced", batch.QuantityProduced,
		"total_cost", batch.TotalCost,
	)

	return batch, nil
}

// lockMaterials locks the distinct materials of the recipe lines in
// byte order of their ids and returns them keyed by id.
func (s *Service) lockMaterials(ctx context.Context, lines []recipe.Line) (map[id.ID]*material.RawMaterial, error) {
	seen := make(map[id.ID]struct{}, len(lines))
	ids := make([]id.ID, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.MaterialID]; ok {
			continue
		}
		seen[line.MaterialID] = struct{}{}
		ids = append(ids, line.MaterialID)
	}

	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})

	materials := make(map[id.ID]*material.RawMaterial, len(ids))
	for _, materialID := range ids {
		m, err := s.materials.GetForUpdate(ctx, materialID)
		if err != nil {
			return nil, err
		}
		materials[materialID] = m
	}

	return materials, nil
}

var hundred = decimal.NewFromInt(100)

func (s *Service) applyCosts(batch *BottlingBatch, b *costing.Breakdown, marginOverride *types.Money) {
	batch.VolumeConsumed = b.VolumeConsumed
	batch.MaterialCost = b.MaterialCost
	batch.LaborCost = b.LaborCost
	batch.OverheadCost = b.OverheadCost
	batch.TotalCost = b.TotalCost
	batch.UnitCost = b.UnitCost

	margin := s.cfg.MarginPercent
	if marginOverride != nil {
		margin = *marginOverride
	}
	batch.SellingPrice = batch.UnitCost.Mul(decimal.NewFromInt(1).Add(margin.Div(hundred)))
}

// applyConversion fills the display-currency snapshot. Conversion
// failure degrades the snapshot, never the batch: base-currency
// figures are already final.
func (s *Service) applyConversion(ctx context.Context, batch *BottlingBatch, displayCurrency string) {
	to := displayCurrency
	if to == "" {
		to = s.cfg.DisplayCurrency
	}

	conv, err := s.converter.Convert(ctx, batch.TotalCost, s.cfg.BaseCurrency, to)
	if err != nil {
		logger.Warn(ctx, "display conversion failed, storing base figures only",
			"batch", batch.Number,
			"to", to,
			"error", err,
		)
		return
	}

	convertedUnit := batch.UnitCost.Mul(conv.Rate)
	now := time.Now().UTC()

	batch.DisplayCurrency = conv.To
	batch.ConvertedTotalCost = &conv.Amount
	batch.ConvertedUnitCost = &convertedUnit
	batch.ExchangeRate = &conv.Rate
	batch.RateSource = conv.Source
	batch.ConvertedAt = &now

	if conv.Degraded() {
		logger.Warn(ctx, "display conversion degraded to fallback rate",
			"batch", batch.Number,
			"rate", conv.Rate,
		)
	}
}

// Advance moves a batch to the next lifecycle status.
// No stock effect; only the batch row changes.
func (s *Service) Advance(ctx context.Context, batchID id.ID, target Status) (*BottlingBatch, error) {
	var batch *BottlingBatch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if err := b.AdvanceTo(target, time.Now()); err != nil {
			return err
		}

		if err := s.repo.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch advanced",
		"id", batch.ID, "number", batch.Number, "status", batch.Status)
	return batch, nil
}

// Cancel reverses a batch in a single transaction: re-credit every
// consumed material from the batch's own ledger entries, take back
// produced units (floored at zero if some were already sold), restore
// the bulk liquid and mark the batch cancelled.
//
// Reversal replays the original consumption entries, not the current
// recipe, so a recipe edited after the batch is reversed exactly as it
// was consumed.
func (s *Service) Cancel(ctx context.Context, batchID id.ID, cancelledBy string) (*BottlingBatch, error) {
	var batch *BottlingBatch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if err := b.MarkCancelled(); err != nil {
			return err
		}

		consumptions, err := s.ledger.ConsumptionsByBatch(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("load consumptions: %w", err)
		}

		// Same deterministic lock order as Create.
		sort.Slice(consumptions, func(i, j int) bool {
			return bytes.Compare(consumptions[i].MaterialID[:], consumptions[j].MaterialID[:]) < 0
		})

		entries := make([]entity.LedgerEntry, 0, len(consumptions)+1)
		for _, c := range consumptions {
			if _, err := s.materials.GetForUpdate(ctx, c.MaterialID); err != nil {
				return err
			}
			if err := s.materials.AdjustStock(ctx, c.MaterialID, c.Quantity); err != nil {
				return fmt.Errorf("restore material stock: %w", err)
			}
			entries = append(entries, entity.NewLedgerEntry(
				b.ID, c.MaterialID, entity.TxTypeReversalIn,
				c.Quantity, c.UnitCost, cancelledBy))
		}

		sellable := b.SellableQuantity()
		if sellable.IsPositive() {
			prod, removed, err := s.products.RemoveStock(ctx, b.SKU, sellable)
			if err != nil {
				return err
			}

			if removed.IsPositive() {
				entries = append(entries, entity.NewLedgerEntry(
					b.ID, prod.ID, entity.TxTypeProductionOutReversal,
					removed, b.UnitCost, cancelledBy))
			}
		}

		if b.VolumeConsumed.IsPositive() {
			if err := s.liquids.AdjustVolume(ctx, b.BulkLiquidID, b.VolumeConsumed); err != nil {
				return fmt.Errorf("restore bulk volume: %w", err)
			}
		}

		if err := s.repo.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		if err := s.ledger.Record(ctx, entries); err != nil {
			return err
		}

		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch cancelled",
		"id", batch.ID, "number", batch.Number, "by", cancelledBy)
	return batch, nil
}

// UpdateRequest carries the mutable fields of an existing batch.
// Everything else is immutable after creation.
type UpdateRequest struct {
	ProductionDate *time.Time
	Notes          *string
}

// Update changes production date and notes.
func (s *Service) Update(ctx context.Context, batchID id.ID, req UpdateRequest) (*BottlingBatch, error) {
	var batch *BottlingBatch
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetForUpdate(ctx, batchID)
		if err != nil {
			return err
		}

		if req.ProductionDate != nil {
			b.ProductionDate = *req.ProductionDate
		}
		if req.Notes != nil {
			b.Notes = *req.Notes
		}

		if err := s.repo.Update(ctx, b); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		batch = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// GetByID retrieves a batch.
func (s *Service) GetByID(ctx context.Context, batchID id.ID) (*BottlingBatch, error) {
	return s.repo.GetByID(ctx, batchID)
}

// List retrieves batches.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*BottlingBatch, error) {
	return s.repo.List(ctx, filter)
}

// Ledger returns all ledger entries caused by a batch.
func (s *Service) Ledger(ctx context.Context, batchID id.ID) ([]entity.LedgerEntry, error) {
	if _, err := s.repo.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	return s.ledger.EntriesByBatch(ctx, batchID)
}
