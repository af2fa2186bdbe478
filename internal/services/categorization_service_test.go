package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/models"
)

func resultsByKey(r *models.SaveResult) map[string]models.KeyResult {
	out := make(map[string]models.KeyResult, len(r.Results))
	for _, kr := range r.Results {
		out[kr.Key] = kr
	}
	return out
}

func TestCategorizationService_SaveReportsEachKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	left := env.fx.GroupFrames[1][2]
	right := env.fx.GroupFrames[1][3]
	other := env.fx.GroupFrames[0][0]

	changes := map[string]models.CategorizationRecord{
		fmt.Sprintf("frame_%d_left", left.ID):   {Category: "3", Note: strPtr("blurry")},
		"bogus":                                 {Category: "1"},
		fmt.Sprintf("frame_%d_left", right.ID):  {Category: "1"},
		"frame_999999_left":                     {Category: "1"},
		fmt.Sprintf("frame_%d_left", other.ID):  {Category: "x"},
		fmt.Sprintf("frame_%d_right", right.ID): {Flagged: true},
	}

	result, err := env.sm.Categorization().Save(ctx, env.groupUnit(), env.fx.Coder.ID, changes)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 6, result.Total)

	byKey := resultsByKey(result)
	assert.Equal(t, "Invalid key format", byKey["bogus"].Error)
	assert.Equal(t, errSideMismatch, byKey[fmt.Sprintf("frame_%d_left", right.ID)].Error)
	assert.Equal(t, errFrameNotInUnit, byKey["frame_999999_left"].Error)
	assert.Equal(t, errInvalidCategory, byKey[fmt.Sprintf("frame_%d_left", other.ID)].Error)
	assert.True(t, byKey[fmt.Sprintf("frame_%d_right", right.ID)].Success)

	got, err := env.sm.Categorization().Get(ctx, env.groupUnit(), env.fx.Coder.ID)
	require.NoError(t, err)

	// the default fill covered every other frame of the group
	assert.Len(t, got, env.fx.GroupFrameCount())
	saved := got[fmt.Sprintf("frame_%d_left", left.ID)]
	assert.Equal(t, "3", saved.Category)
	require.NotNil(t, saved.Note)
	assert.Equal(t, "blurry", *saved.Note)

	flagged := got[fmt.Sprintf("frame_%d_right", right.ID)]
	assert.Equal(t, models.DefaultCategory, flagged.Category)
	assert.True(t, flagged.Flagged)
	assert.Equal(t, models.DefaultCategory, got[fmt.Sprintf("frame_%d_left", other.ID)].Category)

	assert.Len(t, env.events.EventsOfType(events.CategorizationsSaved), 1)
	receipts, err := env.repo.SaveReceipt().ListForUser(ctx, nil, env.fx.Coder.ID, 10)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 2, receipts[0].Saved)
}

func TestCategorizationService_SaveAllValid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	frames := env.fx.SoloFrames

	changes := map[string]models.CategorizationRecord{
		fmt.Sprintf("frame_%d", frames[0].ID): {Category: "9"},
		fmt.Sprintf("frame_%d", frames[1].ID): {Category: "2"},
	}
	result, err := env.sm.Categorization().Save(ctx, env.soloUnit(), env.fx.Coder.ID, changes)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Saved)
	assert.Empty(t, result.Error)

	// last write wins on a second save
	changes = map[string]models.CategorizationRecord{
		fmt.Sprintf("frame_%d", frames[0].ID): {Category: "4"},
	}
	_, err = env.sm.Categorization().Save(ctx, env.soloUnit(), env.fx.Coder.ID, changes)
	require.NoError(t, err)

	got, err := env.sm.Categorization().Get(ctx, env.soloUnit(), env.fx.Coder.ID)
	require.NoError(t, err)
	assert.Equal(t, "4", got[fmt.Sprintf("frame_%d", frames[0].ID)].Category)
	assert.Equal(t, "2", got[fmt.Sprintf("frame_%d", frames[1].ID)].Category)
	assert.Equal(t, models.DefaultCategory, got[fmt.Sprintf("frame_%d", frames[2].ID)].Category)

	// other users are untouched
	others, err := env.sm.Categorization().Get(ctx, env.soloUnit(), env.fx.Other.ID)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestCategorizationService_SaveRejectsDuplicateFrame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	frame := env.fx.SoloFrames[0]
	bare := fmt.Sprintf("frame_%d", frame.ID)
	sided := fmt.Sprintf("frame_%d_left", frame.ID)

	result, err := env.sm.Categorization().Save(ctx, env.soloUnit(), env.fx.Coder.ID, map[string]models.CategorizationRecord{
		bare:  {Category: "3"},
		sided: {Category: "7"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 2, result.Total)

	byKey := map[string]models.KeyResult{}
	for _, kr := range result.Results {
		byKey[kr.Key] = kr
	}
	assert.True(t, byKey[bare].Success)
	assert.False(t, byKey[sided].Success)
	assert.Equal(t, errDuplicateKey, byKey[sided].Error)

	got, err := env.sm.Categorization().Get(ctx, env.soloUnit(), env.fx.Coder.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", got[bare].Category)
}

func TestCategorizationService_SaveWriteFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	frame := env.fx.SoloFrames[0]

	require.NoError(t, env.db.Migrator().DropTable(&models.Categorization{}))

	changes := map[string]models.CategorizationRecord{
		fmt.Sprintf("frame_%d", frame.ID): {Category: "1"},
		"bad key":                         {Category: "1"},
	}
	result, err := env.sm.Categorization().Save(ctx, env.soloUnit(), env.fx.Coder.ID, changes)
	require.ErrorIs(t, err, ErrSaveFailed)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 2, result.Total)
	for _, kr := range result.Results {
		assert.False(t, kr.Success, kr.Key)
		assert.NotEmpty(t, kr.Error, kr.Key)
	}
	assert.Empty(t, env.events.GetPublishedEvents())
}

func TestCategorizationService_NothingValid(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.sm.Categorization().Save(context.Background(), env.soloUnit(), env.fx.Coder.ID, map[string]models.CategorizationRecord{
		"frame_abc": {Category: "1"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 1, result.Total)
	assert.Empty(t, env.events.GetPublishedEvents())
}

func TestCategorizationService_FillDefaultsIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	n, err := env.sm.Categorization().FillDefaults(ctx, env.convUnit(), env.fx.Other.ID)
	require.NoError(t, err)
	assert.EqualValues(t, len(env.fx.ConvFrames), n)

	n, err = env.sm.Categorization().FillDefaults(ctx, env.convUnit(), env.fx.Other.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
