package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

type cachedUser struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestCacheHelper_SetGet(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Users.Set(ctx, "id:3", cachedUser{ID: 3, Name: "Ana"}, time.Minute))
	assert.True(t, mr.Exists("user:id:3"))

	var got cachedUser
	require.NoError(t, cm.Users.Get(ctx, "id:3", &got))
	assert.Equal(t, cachedUser{ID: 3, Name: "Ana"}, got)

	err := cm.Users.Get(ctx, "id:4", &got)
	assert.ErrorIs(t, err, ErrCacheNotFound)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, cm.Users.Get(ctx, "id:3", &got), ErrCacheNotFound)
}

func TestCacheHelper_Bytes(t *testing.T) {
	cm, _ := newTestManager(t)
	ctx := context.Background()

	payload := []byte{0xff, 0xd8, 0x00, 0x10}
	require.NoError(t, cm.Blobs.SetBytes(ctx, "g1/frame.jpg", payload, time.Minute))
	got, err := cm.Blobs.GetBytes(ctx, "g1/frame.jpg")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestInvalidateUserCache(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Users.Set(ctx, UserListKey, []int{1}, time.Minute))
	require.NoError(t, cm.Groups.Set(ctx, GroupListKey(1), []int{1}, time.Minute))

	InvalidateUserCache(ctx, cm)
	assert.False(t, mr.Exists("user:list"))
	assert.True(t, mr.Exists("group:list:user:1"), "other prefixes are untouched")
}

func TestCacheHelper_CacheOrExecute(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return cachedUser{ID: 1, Name: "Bo"}, nil
	}

	var got cachedUser
	require.NoError(t, cm.Users.CacheOrExecute(ctx, "id:1", &got, time.Minute, fetch))
	assert.Equal(t, "Bo", got.Name)
	require.Eventually(t, func() bool { return mr.Exists("user:id:1") }, time.Second, 10*time.Millisecond)

	got = cachedUser{}
	require.NoError(t, cm.Users.CacheOrExecute(ctx, "id:1", &got, time.Minute, fetch))
	assert.Equal(t, "Bo", got.Name)
	assert.Equal(t, 1, calls)

	boom := errors.New("db down")
	err := cm.Users.CacheOrExecute(ctx, "id:2", &got, time.Minute, func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestCacheManager_WithoutRedis(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	require.NoError(t, cm.Users.Set(ctx, "x", 1, time.Minute))
	var v int
	assert.ErrorIs(t, cm.Users.Get(ctx, "x", &v), ErrCacheNotAvailable)
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	calls := 0
	require.NoError(t, cm.Users.CacheOrExecute(ctx, "x", &v, time.Minute, func() (interface{}, error) {
		calls++
		return 42, nil
	}))
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, calls)
}
