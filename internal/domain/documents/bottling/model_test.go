package bottling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"essentia/internal/core/apperror"
	"essentia/internal/core/id"
	"essentia/internal/core/types"
)

func newTestBatch() *BottlingBatch {
	return NewBottlingBatch(id.New(), id.New(),
		types.NewQuantityFromInt(50),
		types.NewQuantityFromInt(48),
		types.NewQuantityFromInt(2))
}

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPlanned, StatusInProgress, true},
		{StatusInProgress, StatusQualityCheck, true},
		{StatusQualityCheck, StatusPackaged, true},
		{StatusPackaged, StatusCompleted, true},

		// No skipping
		{StatusPlanned, StatusQualityCheck, false},
		{StatusPlanned, StatusCompleted, false},
		{StatusInProgress, StatusPackaged, false},

		// No going back
		{StatusQualityCheck, StatusInProgress, false},
		{StatusCompleted, StatusPlanned, false},

		// Terminal states go nowhere
		{StatusCompleted, StatusCompleted, false},
		{StatusCancelled, StatusInProgress, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanAdvanceTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPlanned.Terminal())
	assert.False(t, StatusPackaged.Terminal())
}

func TestAdvanceTo_StampsLifecycleTimes(t *testing.T) {
	b := newTestBatch()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, b.AdvanceTo(StatusInProgress, start))
	require.NotNil(t, b.StartTime)
	assert.Equal(t, start, *b.StartTime)
	assert.Nil(t, b.EndTime)

	require.NoError(t, b.AdvanceTo(StatusQualityCheck, start.Add(30*time.Minute)))
	require.NoError(t, b.AdvanceTo(StatusPackaged, start.Add(60*time.Minute)))

	end := start.Add(90 * time.Minute)
	require.NoError(t, b.AdvanceTo(StatusCompleted, end))
	require.NotNil(t, b.EndTime)
	assert.Equal(t, end, *b.EndTime)
	assert.Equal(t, 90, b.DurationMinutes)
}

func TestAdvanceTo_RejectsIllegalTargets(t *testing.T) {
	b := newTestBatch()

	err := b.AdvanceTo(StatusCompleted, time.Now())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidTransition, appErr.Code)

	// Cancellation never goes through AdvanceTo
	err = b.AdvanceTo(StatusCancelled, time.Now())
	require.Error(t, err)

	err = b.AdvanceTo(Status("shipped"), time.Now())
	require.Error(t, err)

	// State unchanged after rejected transitions
	assert.Equal(t, StatusPlanned, b.Status)
}

func TestMarkCancelled(t *testing.T) {
	b := newTestBatch()
	require.NoError(t, b.MarkCancelled())
	assert.Equal(t, StatusCancelled, b.Status)

	// Cancelling twice is reported distinctly
	err := b.MarkCancelled()
	assert.True(t, apperror.IsBatchCancelled(err))
}

func TestMarkCancelled_CompletedBatch(t *testing.T) {
	b := newTestBatch()
	now := time.Now()
	require.NoError(t, b.AdvanceTo(StatusInProgress, now))
	require.NoError(t, b.AdvanceTo(StatusQualityCheck, now))
	require.NoError(t, b.AdvanceTo(StatusPackaged, now))
	require.NoError(t, b.AdvanceTo(StatusCompleted, now))

	err := b.MarkCancelled()
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "BATCH_COMPLETED", appErr.Code)
	assert.Equal(t, StatusCompleted, b.Status)
}

func TestSellableQuantity(t *testing.T) {
	b := newTestBatch()
	assert.Equal(t, types.NewQuantityFromInt(46), b.SellableQuantity())

	b.QuantityDefective = b.QuantityProduced
	assert.True(t, b.SellableQuantity().IsZero())
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, newTestBatch().Validate(context.Background()))
	})

	t.Run("missing recipe", func(t *testing.T) {
		b := newTestBatch()
		b.RecipeID = id.ID{}
		assert.Error(t, b.Validate(context.Background()))
	})

	t.Run("zero produced", func(t *testing.T) {
		b := newTestBatch()
		b.QuantityProduced = 0
		assert.Error(t, b.Validate(context.Background()))
	})

	t.Run("defective exceeds produced", func(t *testing.T) {
		b := newTestBatch()
		b.QuantityDefective = b.QuantityProduced + 1
		assert.Error(t, b.Validate(context.Background()))
	})

	t.Run("negative defective", func(t *testing.T) {
		b := newTestBatch()
		b.QuantityDefective = types.NewQuantityFromInt(-1)
		assert.Error(t, b.Validate(context.Background()))
	})
}
