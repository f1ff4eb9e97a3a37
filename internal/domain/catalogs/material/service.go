package material

import (
	"context"

	"essentia/internal/core/id"
	"essentia/pkg/logger"
)

// Service provides read and maintenance operations for raw materials.
// Stock mutation is NOT exposed here: only the bottling engine may move
// stock, and only through ledgered postings.
type Service struct {
	repo Repository
}

// NewService creates a new raw material service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new raw material.
func (s *Service) Create(ctx context.Context, m *RawMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return err
	}

	logger.Info(ctx, "raw material created", "id", m.ID, "code", m.Code)
	return nil
}

// Update modifies catalog attributes (name, costs, reorder levels).
// CurrentStock is deliberately not writable through this path.
func (s *Service) Update(ctx context.Context, m *RawMaterial) error {
	if err := m.Validate(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, m)
}

// GetByID retrieves a raw material.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*RawMaterial, error) {
	return s.repo.GetByID(ctx, materialID)
}

// List retrieves materials with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*RawMaterial, error) {
	return s.repo.List(ctx, filter)
}

// ListBelowReorder returns materials at or below their reorder point.
func (s *Service) ListBelowReorder(ctx context.Context) ([]*RawMaterial, error) {
	return s.repo.List(ctx, ListFilter{BelowReorder: true})
}
