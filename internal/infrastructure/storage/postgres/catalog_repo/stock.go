package catalog_repo

import (
	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

// stockShortfall builds the insufficient-stock error for a refused
// conditional update. The balance must come from the locked row so the
// reported quantities match what the update actually saw.
func stockShortfall(entityID id.ID, delta, available types.Quantity) error {
	return apperror.NewInsufficientStock(entityID.String(), delta.Abs().Float64(), available.Float64())
}
