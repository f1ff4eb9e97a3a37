// Package ledger provides the append-only stock ledger register service.
package ledger

import (
	"context"
	"fmt"

	"essentia/internal/core/apperror"
	"essentia/internal/core/entity"
	"essentia/internal/core/id"
	"essentia/pkg/logger"
)

// Service provides business operations for the stock ledger.
// Transactions are managed by the caller (the bottling engine): every
// posting happens inside the same transaction as the balance change it
// records, so ledger and live balances never diverge.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record validates and appends entries.
// Called during batch posting within a transaction.
func (s *Service) Record(ctx context.Context, entries []entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	for i, e := range entries {
		if !e.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("entry %d: quantity must be positive", i))
		}
		if id.IsNil(e.BatchID) {
			return apperror.NewValidation(fmt.Sprintf("entry %d: batch_id is required", i))
		}
		if id.IsNil(e.MaterialID) {
			return apperror.NewValidation(fmt.Sprintf("entry %d: material_id is required", i))
		}
	}

	if err := s.repo.CreateEntries(ctx, entries); err != nil {
		return fmt.Errorf("create ledger entries: %w", err)
	}

	logger.Info(ctx, "recorded ledger entries",
		"count", len(entries),
		"batch_id", entries[0].BatchID,
	)

	return nil
}

// ConsumptionsByBatch returns the original consumption entries of a
// batch, the source of truth for cancellation reversal.
func (s *Service) ConsumptionsByBatch(ctx context.Context, batchID id.ID) ([]entity.LedgerEntry, error) {
	return s.repo.GetEntriesByBatchAndType(ctx, batchID, entity.TxTypeConsumption)
}

// EntriesByBatch returns all entries caused by a batch.
func (s *Service) EntriesByBatch(ctx context.Context, batchID id.ID) ([]entity.LedgerEntry, error) {
	return s.repo.GetEntriesByBatch(ctx, batchID)
}

// NetByBatch returns the signed net effect per material for a batch.
func (s *Service) NetByBatch(ctx context.Context, batchID id.ID) ([]NetPosition, error) {
	return s.repo.GetNetByBatch(ctx, batchID)
}

// History returns ledger history for a material.
func (s *Service) History(ctx context.Context, materialID id.ID, filter HistoryFilter) ([]entity.LedgerEntry, error) {
	return s.repo.GetHistory(ctx, materialID, filter)
}
