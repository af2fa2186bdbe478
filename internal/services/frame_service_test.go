package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/blob"
	"github.com/framelab/annotation-service/internal/models"
)

func TestFrameService_SegmentOrdersByNumber(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.sm.Frame().ListFrames(context.Background(), env.soloUnit(), false)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, 3, resp.TotalFrames)

	var names []string
	for i, f := range resp.Frames {
		names = append(names, f.Name)
		assert.Equal(t, i+1, f.FrameNumber)
		assert.NotZero(t, f.ID)
		assert.Nil(t, f.LeftFrameID)
		assert.Equal(t, 0, f.Size)
	}
	assert.Equal(t, []string{"subj_cond_3_a.jpg", "subj_cond_27_a.jpg", "subj_cond_150_a.jpg"}, names)
	assert.Equal(t, "solo/3.jpg", resp.Frames[0].Data)
}

func TestFrameService_GroupPairsSides(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.sm.Frame().ListFrames(context.Background(), env.groupUnit(), false)
	require.NoError(t, err)
	require.Len(t, resp.Frames, 4)

	// GroupSegments[1] is presented first; its frames are 27L, 27R, 3L, 3R
	first := env.fx.GroupFrames[1]
	row := resp.Frames[0]
	assert.Equal(t, 1, row.FrameNumber)
	assert.Equal(t, 1, row.SegmentOrder)
	assert.Equal(t, 3, row.OriginalFrameNumber)
	require.NotNil(t, row.LeftFrameID)
	require.NotNil(t, row.RightFrameID)
	assert.Equal(t, first[2].ID, *row.LeftFrameID)
	assert.Equal(t, first[3].ID, *row.RightFrameID)
	assert.Equal(t, first[2].FrameURL, row.Data)

	var order []int
	for _, f := range resp.Frames {
		order = append(order, f.SegmentOrder*1000+f.OriginalFrameNumber)
	}
	assert.Equal(t, []int{1003, 1027, 2003, 2027}, order)
}

func TestFrameService_ConversationRowWithoutRight(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.sm.Frame().ListFrames(context.Background(), env.convUnit(), false)
	require.NoError(t, err)
	require.Len(t, resp.Frames, 2)
	assert.NotNil(t, resp.Frames[0].RightFrameID)
	assert.Nil(t, resp.Frames[1].RightFrameID)
	assert.Equal(t, env.fx.ConvFrames[2].ID, *resp.Frames[1].LeftFrameID)
}

func TestFrameService_InlineImages(t *testing.T) {
	env := newTestEnv(t)
	left := env.fx.GroupFrames[1][2]
	image := []byte{0xff, 0xd8, 0xff, 0xe0}
	env.blobs.Put(blob.ObjectPath(left.FrameURL, testBucket), image)

	resp, err := env.sm.Frame().ListFrames(context.Background(), env.groupUnit(), true)
	require.NoError(t, err)

	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString(image), resp.Frames[0].Data)
	assert.Equal(t, len(image), resp.Frames[0].Size)

	// missing objects fall back to the url
	assert.Equal(t, env.fx.GroupFrames[1][0].FrameURL, resp.Frames[1].Data)
	assert.Equal(t, 0, resp.Frames[1].Size)
	assert.Equal(t, 4, env.blobs.Gets())
}

func TestFrameService_EmptyUnit(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.sm.Frame().ListFrames(context.Background(), models.Unit{Kind: models.UnitSegment, ID: 9999}, true)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.NotNil(t, resp.Frames)
	assert.Empty(t, resp.Frames)
}
