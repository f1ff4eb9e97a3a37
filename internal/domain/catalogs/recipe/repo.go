package recipe

import (
	"context"

	"essentia/internal/core/id"
)

// Repository defines persistence operations for recipes.
type Repository interface {
	Create(ctx context.Context, r *Recipe) error
	Update(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, recipeID id.ID) (*Recipe, error)
	GetLines(ctx context.Context, recipeID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, recipeID id.ID, lines []Line) error
	List(ctx context.Context, limit, offset int) ([]*Recipe, error)
}
