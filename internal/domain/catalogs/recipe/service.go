package recipe

import (
	"context"
	"fmt"

	"essentia/internal/core/id"
	"essentia/internal/core/tx"
	"essentia/pkg/logger"
)

// Service provides business operations for the recipe catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new recipe service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
	}
}

// Create creates a recipe with its lines atomically.
func (s *Service) Create(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, r); err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		if err := s.repo.SaveLines(ctx, r.ID, r.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "recipe created", "id", r.ID, "code", r.Code, "lines", len(r.Lines))
	return nil
}

// Update replaces the recipe header and lines atomically.
// Historical batches are unaffected: reversal replays their own ledger
// entries, never the current lines.
func (s *Service) Update(ctx context.Context, r *Recipe) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, r); err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}
		if err := s.repo.SaveLines(ctx, r.ID, r.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Resolve retrieves a recipe with its lines.
// Returns NotFound if the recipe is missing.
func (s *Service) Resolve(ctx context.Context, recipeID id.ID) (*Recipe, error) {
	r, err := s.repo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	r.Lines = lines

	return r, nil
}

// List retrieves recipes.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Recipe, error) {
	return s.repo.List(ctx, limit, offset)
}
