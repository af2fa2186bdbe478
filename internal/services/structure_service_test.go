package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructureService_Parse(t *testing.T) {
	env := newTestEnv(t)
	svc := env.sm.Structure()

	st, err := svc.Parse("t1/4003_c2\n\n  T1/4003_c1  \nt1/4003_c1\nt4/5001_c1_extra\nt4/5002\n")
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string][]int{
		"T1": {"4003": {1, 2}},
		"T4": {"5001": {1}, "5002": {}},
	}, st.Timepoints)

	out, err := st.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "T1:")
	assert.Contains(t, string(out), `"4003":`)

	back, err := ParseStructureYAML(out)
	require.NoError(t, err)
	assert.Equal(t, st.Timepoints, back.Timepoints)
}

func TestStructureService_ParseReportsLines(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.sm.Structure().Parse("t1/4003_c1\nnot a path\nt1/4003_c1\na/b/c")
	require.ErrorIs(t, err, ErrValidationFailed)

	var lines LineErrors
	require.True(t, errors.As(err, &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, 2, lines[0].Line)
	assert.Equal(t, 4, lines[1].Line)
	assert.Contains(t, err.Error(), `line 2: cannot parse "not a path"`)
}

func TestStructureService_ApplyIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := env.sm.Structure()

	st, err := svc.Parse("t1/4003_c1\nt1/4003_c2\nt4/5001_c1")
	require.NoError(t, err)

	stats, err := svc.Apply(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, &ApplyStats{TimepointsCreated: 1, CouplesCreated: 1, ConversationsCreated: 1, Existing: 4}, stats)

	stats, err = svc.Apply(ctx, st)
	require.NoError(t, err)
	assert.Equal(t, &ApplyStats{Existing: 7}, stats)

	ref, err := env.sm.Conversation().Lookup(ctx, "T4", "5001", 1)
	require.NoError(t, err)
	assert.NotZero(t, ref.ConversationID)
}
