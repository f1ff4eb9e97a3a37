package bulkliquid

import (
	"context"

	"essentia/internal/core/id"
	"essentia/pkg/logger"
)

// Service provides read and maintenance operations for bulk liquids.
// Volume mutation belongs to the bottling engine.
type Service struct {
	repo Repository
}

// NewService creates a new bulk liquid service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new bulk liquid.
func (s *Service) Create(ctx context.Context, b *BulkLiquid) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return err
	}

	logger.Info(ctx, "bulk liquid created", "id", b.ID, "code", b.Code)
	return nil
}

// Update modifies catalog attributes. BulkQuantity is not writable here.
func (s *Service) Update(ctx context.Context, b *BulkLiquid) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, b)
}

// GetByID retrieves a bulk liquid.
func (s *Service) GetByID(ctx context.Context, liquidID id.ID) (*BulkLiquid, error) {
	return s.repo.GetByID(ctx, liquidID)
}

// List retrieves bulk liquids.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*BulkLiquid, error) {
	return s.repo.List(ctx, limit, offset)
}
