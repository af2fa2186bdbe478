package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framelab/annotation-service/internal/cache"
)

func TestObjectPath(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://storage.cloud.google.com/mcnulty_frames/g1/a_b_3_1.jpg", "g1/a_b_3_1.jpg"},
		{"https://storage.googleapis.com/mcnulty_frames/g1/a.jpg", "g1/a.jpg"},
		{"https://storage.cloud.google.com/other/g1/a.jpg", "https://storage.cloud.google.com/other/g1/a.jpg"},
		{"g1/a.jpg", "g1/a.jpg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectPath(tt.url, "mcnulty_frames"), tt.url)
	}
}

func TestDirStore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "g1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "g1", "f.jpg"), []byte("jpeg"), 0o644))

	s := NewDirStore(root)
	data, err := s.Get(context.Background(), "g1/f.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	_, err = s.Get(context.Background(), "g1/missing.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	mem := NewMemoryStore()
	mem.Put("g1/f.jpg", []byte{1, 2, 3})
	s := NewCachedStore(mem, cache.NewCacheManager(client).Blobs, time.Minute)

	for range 3 {
		data, err := s.Get(context.Background(), "g1/f.jpg")
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, data)
	}
	assert.Equal(t, 1, mem.Gets())
	assert.True(t, mr.Exists("blob:g1/f.jpg"))

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
