package bucket

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrObjectNotFound is returned by InMemoryClient.Get for a missing key.
var ErrObjectNotFound = errors.New("bucket: object not found")

// InMemoryClient is a Client backed by a map, used by tests that don't
// want to stand up a real S3-compatible endpoint.
type InMemoryClient struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewInMemoryClient returns an empty in-memory bucket.
func NewInMemoryClient() *InMemoryClient {
	return &InMemoryClient{objects: map[string][]byte{}}
}

func (c *InMemoryClient) List(_ context.Context, prefix string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var keys []string
	for k := range c.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (c *InMemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.objects[key]
	if !ok {
		return nil, errors.Wrapf(ErrObjectNotFound, "key %q", key)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (c *InMemoryClient) Put(_ context.Context, key string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	c.objects[key] = stored
	return nil
}

func (c *InMemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.objects, key)
	return nil
}
