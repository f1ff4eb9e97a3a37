package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/domain/catalogs/recipe"
	"essentia/internal/infrastructure/storage/postgres"
)

const (
	recipeTable     = "cat_recipes"
	recipeLineTable = "cat_recipe_lines"
)

var recipeColumns = []string{"id", "version", "code", "name", "volume_per_unit"}

// RecipeRepo implements recipe.Repository.
// Lines live in a separate table and are replaced wholesale on save,
// the usual tabular-part treatment.
type RecipeRepo struct {
	tm      *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewRecipeRepo creates a new recipe repository.
func NewRecipeRepo(tm *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		tm:      tm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a recipe header.
func (r *RecipeRepo) Create(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Insert(recipeTable).
		Columns(recipeColumns...).
		Values(rec.ID, rec.Version, rec.Code, rec.Name, rec.VolumePerUnit)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("recipe", "code", rec.Code)
		}
		return fmt.Errorf("insert recipe: %w", err)
	}

	return nil
}

// Update saves a recipe header with optimistic version check.
func (r *RecipeRepo) Update(ctx context.Context, rec *recipe.Recipe) error {
	q := r.builder.Update(recipeTable).
		Set("code", rec.Code).
		Set("name", rec.Name).
		Set("volume_per_unit", rec.VolumePerUnit).
		Set("version", rec.Version+1).
		Where(squirrel.Eq{"id": rec.ID, "version": rec.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.tm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict("recipe was modified by another operation")
	}

	rec.Touch()
	return nil
}

// GetByID retrieves a recipe header (without lines).
func (r *RecipeRepo) GetByID(ctx context.Context, recipeID id.ID) (*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipeTable).
		Where(squirrel.Eq{"id": recipeID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rec recipe.Recipe
	if err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("recipe", recipeID)
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	return &rec, nil
}

// GetLines retrieves recipe lines in order.
func (r *RecipeRepo) GetLines(ctx context.Context, recipeID id.ID) ([]recipe.Line, error) {
	q := r.builder.Select("line_id", "line_no", "material_id", "quantity_per_unit").
		From(recipeLineTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []recipe.Line
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces all lines of a recipe.
func (r *RecipeRepo) SaveLines(ctx context.Context, recipeID id.ID, lines []recipe.Line) error {
	querier := r.tm.GetQuerier(ctx)

	delSQL, delArgs, err := r.builder.Delete(recipeLineTable).
		Where(squirrel.Eq{"recipe_id": recipeID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, delSQL, delArgs...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.builder.Insert(recipeLineTable).
		Columns("line_id", "recipe_id", "line_no", "material_id", "quantity_per_unit")
	for _, line := range lines {
		q = q.Values(line.LineID, recipeID, line.LineNo, line.MaterialID, line.QuantityPerUnit)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// List retrieves recipes (headers only).
func (r *RecipeRepo) List(ctx context.Context, limit, offset int) ([]*recipe.Recipe, error) {
	q := r.builder.Select(recipeColumns...).
		From(recipeTable).
		OrderBy("code")

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

	var recipes []*recipe.Recipe
	if err := pgxscan.Select(ctx, r.tm.GetQuerier(ctx), &recipes, sql, args...); err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}

	return recipes, nil
}

var _ recipe.Repository = (*RecipeRepo)(nil)
