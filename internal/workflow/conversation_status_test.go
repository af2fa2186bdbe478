package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/models"
)

func ptr[T any](v T) *T { return &v }

var (
	coder  = Actor{ID: 7, Role: models.RoleCoder}
	other  = Actor{ID: 8, Role: models.RoleCoder}
	admin  = Actor{ID: 1, Role: models.RoleAdmin}
	locked = Status{FirstPassCompleted: true, FirstPassBy: ptr(uint(7)), SecondPassCompleted: true, SecondPassBy: ptr(uint(8)), FinalPassLocked: true}
)

func TestApply_PassStamps(t *testing.T) {
	next, err := Apply(Status{}, Update{FirstPassCompleted: ptr(true)}, coder)
	require.NoError(t, err)
	assert.True(t, next.FirstPassCompleted)
	require.NotNil(t, next.FirstPassBy)
	assert.Equal(t, uint(7), *next.FirstPassBy)
	assert.Equal(t, StateFirstPass, next.State())

	next, err = Apply(next, Update{SecondPassCompleted: ptr(true)}, other)
	require.NoError(t, err)
	assert.Equal(t, uint(8), *next.SecondPassBy)
	assert.Equal(t, uint(7), *next.FirstPassBy, "first pass stamp is preserved")

	next, err = Apply(next, Update{SecondPassCompleted: ptr(false)}, other)
	require.NoError(t, err)
	assert.Nil(t, next.SecondPassBy)
	assert.Equal(t, StateFirstPass, next.State())
}

func TestApply_LockIsAdminOnly(t *testing.T) {
	ready := Status{FirstPassCompleted: true, SecondPassCompleted: true}

	_, err := Apply(ready, Update{FinalPassLocked: ptr(true)}, coder)
	assert.ErrorIs(t, err, ErrForbidden)

	next, err := Apply(ready, Update{FinalPassLocked: ptr(true)}, admin)
	require.NoError(t, err)
	assert.Equal(t, StateLocked, next.State())

	_, err = Apply(locked, Update{FinalPassLocked: ptr(false)}, coder)
	assert.ErrorIs(t, err, ErrLocked)

	next, err = Apply(locked, Update{FinalPassLocked: ptr(false)}, admin)
	require.NoError(t, err)
	assert.Equal(t, StateSecondPass, next.State())
}

func TestApply_OrderingForCoders(t *testing.T) {
	_, err := Apply(Status{}, Update{SecondPassCompleted: ptr(true)}, coder)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// admins may jump straight to any state
	next, err := Apply(Status{}, Target(StateLocked), admin)
	require.NoError(t, err)
	assert.Equal(t, StateLocked, next.State())

	next, err = Apply(Status{}, Target(StateSecondPass), coder)
	require.NoError(t, err)
	assert.Equal(t, StateSecondPass, next.State())
}

func TestApply_InProgressClaim(t *testing.T) {
	next, err := Apply(Status{}, Update{InProgress: ptr(true)}, coder)
	require.NoError(t, err)
	require.NotNil(t, next.InProgressBy)
	assert.Equal(t, uint(7), *next.InProgressBy)

	_, err = Apply(next, Update{InProgress: ptr(true)}, other)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = Apply(next, Update{InProgress: ptr(false)}, other)
	assert.ErrorIs(t, err, ErrNotHolder)

	released, err := Apply(next, Update{InProgress: ptr(false)}, coder)
	require.NoError(t, err)
	assert.Nil(t, released.InProgressBy)

	_, err = Apply(locked, Update{InProgress: ptr(true)}, coder)
	assert.ErrorIs(t, err, ErrLocked)

	claimed, err := Apply(locked, Update{InProgress: ptr(true)}, admin)
	require.NoError(t, err)
	assert.Equal(t, uint(1), *claimed.InProgressBy)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	current := Status{FirstPassCompleted: true, FirstPassBy: ptr(uint(3))}
	_, err := Apply(current, Update{FirstPassCompleted: ptr(false)}, coder)
	require.NoError(t, err)
	assert.True(t, current.FirstPassCompleted)
	assert.Equal(t, uint(3), *current.FirstPassBy)
}

func TestCanToggleInProgress(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		actor  Actor
		want   bool
	}{
		{"unclaimed", Status{}, coder, true},
		{"own claim", Status{InProgressBy: ptr(uint(7))}, coder, true},
		{"other claim", Status{InProgressBy: ptr(uint(8))}, coder, false},
		{"locked coder", locked, coder, false},
		{"locked admin", locked, admin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanToggleInProgress(tt.status, tt.actor))
		})
	}
}
