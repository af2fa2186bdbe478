// Package blob reads frame images from object storage.
package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("object not found")

// Store fetches an object by its path inside the bucket.
type Store interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// ObjectPath turns a stored frame URL into a bucket path. URLs of the form
// https://storage.cloud.google.com/<bucket>/<path> are stripped to <path>;
// anything else is used as is.
func ObjectPath(frameURL, bucket string) string {
	for _, host := range []string{"https://storage.cloud.google.com/", "https://storage.googleapis.com/"} {
		prefix := host + bucket + "/"
		if strings.HasPrefix(frameURL, prefix) {
			return strings.TrimPrefix(frameURL, prefix)
		}
	}
	return frameURL
}

// DirStore serves objects from a local directory.
type DirStore struct {
	root string
}

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (d *DirStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean := filepath.Clean("/" + path)
	data, err := os.ReadFile(filepath.Join(d.root, clean))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// MemoryStore keeps objects in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	gets    int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(path string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = data
}

func (m *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	data, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, nil
}

// Gets returns how many reads reached the store.
func (m *MemoryStore) Gets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets
}
