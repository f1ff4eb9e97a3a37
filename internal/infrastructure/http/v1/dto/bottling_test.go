package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"essentia/internal/core/apperror"
	"essentia/internal/domain/currency"
	"essentia/internal/domain/documents/bottling"
)

func TestFromBatch_WarnsOnFallbackRate(t *testing.T) {
	b := &bottling.BottlingBatch{}

	b.RateSource = currency.SourceLive
	assert.Empty(t, FromBatch(b).Warnings)

	b.RateSource = currency.SourceCache
	assert.Empty(t, FromBatch(b).Warnings)

	b.RateSource = currency.SourceFallback
	assert.Equal(t, []string{apperror.CodeConversionDegraded}, FromBatch(b).Warnings)
}
