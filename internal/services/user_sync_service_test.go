package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/events"
	"github.com/framelab/annotation-service/internal/models"
)

type staticDirectory struct {
	users []*models.User
	err   error
}

func (d *staticDirectory) ListUsers(context.Context) ([]*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	// fresh copies; the upsert writes ids back
	out := make([]*models.User, 0, len(d.users))
	for _, u := range d.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func TestUserSyncService_Sync(t *testing.T) {
	dir := &staticDirectory{users: []*models.User{
		{DisplayName: "Jordan", Role: models.RoleCoder, ExternalID: strPtr("ext-1")},
		{DisplayName: "Sam", Role: models.RoleAdmin, ExternalID: strPtr("ext-2")},
	}}
	env := newTestEnv(t, func(c *ServiceManagerConfig) { c.Directory = dir })
	ctx := context.Background()

	result, err := env.sm.UserSync().Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, &SyncResult{Fetched: 2, Synced: 2}, result)

	dir.users[0].DisplayName = "Jordan K."
	_, err = env.sm.UserSync().Sync(ctx)
	require.NoError(t, err)

	var mirrored []models.User
	require.NoError(t, env.db.Where("external_id IS NOT NULL").Order("external_id").Find(&mirrored).Error)
	require.Len(t, mirrored, 2)
	assert.Equal(t, "Jordan K.", mirrored[0].DisplayName)
	assert.Equal(t, models.RoleAdmin, mirrored[1].Role)

	users, err := env.sm.Auth().ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 5)

	assert.Len(t, env.events.EventsOfType(events.UsersSynced), 2)
}

func TestUserSyncService_Errors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.sm.UserSync().Sync(context.Background())
	assert.ErrorIs(t, err, ErrServerMisconfigured)

	failing := newTestEnv(t, func(c *ServiceManagerConfig) {
		c.Directory = &staticDirectory{err: errors.New("directory down")}
	})
	_, err = failing.sm.UserSync().Sync(context.Background())
	assert.ErrorContains(t, err, "directory down")
}
