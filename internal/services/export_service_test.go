package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/framelab/annotation-service/internal/models"
)

func TestExportService_WriteCategorizations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	frames := env.fx.SoloFrames

	_, err := env.sm.Categorization().Save(ctx, env.soloUnit(), env.fx.Coder.ID, map[string]models.CategorizationRecord{
		fmt.Sprintf("frame_%d", frames[1].ID): {Category: "6", Flagged: true, Note: strPtr("snack")},
	})
	require.NoError(t, err)
	_, err = env.sm.Categorization().Save(ctx, env.soloUnit(), env.fx.Other.ID, map[string]models.CategorizationRecord{
		fmt.Sprintf("frame_%d", frames[1].ID): {Category: "7"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := env.sm.Export().WriteCategorizations(ctx, env.soloUnit(), &buf)
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Categorizations")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Frame Name", rows[0][2])

	// frame 3 sorts first; Casey before Robin
	assert.Equal(t, "subj_cond_3_a.jpg", rows[1][2])
	assert.Equal(t, "Casey", rows[1][5])
	assert.Equal(t, "6", rows[1][6])
	assert.Equal(t, "Eating", rows[1][7])
	assert.Equal(t, "snack", rows[1][9])
	assert.Equal(t, "Robin", rows[2][5])
	assert.Equal(t, "Yawning", rows[2][7])
	assert.Equal(t, "subj_cond_150_a.jpg", rows[6][2])

	legend, err := f.GetRows("Legend")
	require.NoError(t, err)
	assert.Len(t, legend, len(models.CategoryLabels)+1)
	assert.Equal(t, []string{"0", "All Good"}, legend[1])
}

func TestExportService_EmptyUnit(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	n, err := env.sm.Export().WriteCategorizations(context.Background(), env.convUnit(), &buf)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NotZero(t, buf.Len())
}
