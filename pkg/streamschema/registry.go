// Package streamschema provides the read-only stream -> earliest-created
// view the file-list compactor consults to pick a starting instant when
// no offset has been recorded yet. The CRUD side of stream schemas lives
// in the ingest/control-plane path and is out of scope for this core.
package streamschema

import (
	"context"
	"sync"
	"time"
)

// StreamRef identifies a stream uniquely across the cluster. It is the
// shared key type used by the schema registry, the compact-offset
// store, and the file-list compactor, so the three never drift apart
// on what "a stream" means.
type StreamRef struct {
	OrgID      string
	StreamType string
	Stream     string
}

// Registry is a read-only view over stream metadata.
type Registry interface {
	// ListStreams returns every known stream. An empty result is not an
	// error: it means no-op for the compactor.
	ListStreams(ctx context.Context) ([]StreamRef, error)

	// CreatedAt returns the earliest-created timestamp recorded for ref.
	CreatedAt(ctx context.Context, ref StreamRef) (time.Time, error)
}

// InMemoryRegistry is a Registry backed by a map, used in standalone
// deployments and in tests. Production wiring is expected to source
// this data from the stream-schema control plane, which is out of
// scope for this core.
type InMemoryRegistry struct {
	mu        sync.RWMutex
	createdAt map[StreamRef]time.Time
}

// NewInMemoryRegistry returns an empty registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{createdAt: map[StreamRef]time.Time{}}
}

// Put records (or overwrites) the creation time for ref.
func (r *InMemoryRegistry) Put(ref StreamRef, createdAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createdAt[ref] = createdAt
}

// Remove deletes ref from the registry, as if the stream never existed.
func (r *InMemoryRegistry) Remove(ref StreamRef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.createdAt, ref)
}

func (r *InMemoryRegistry) ListStreams(_ context.Context) ([]StreamRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]StreamRef, 0, len(r.createdAt))
	for ref := range r.createdAt {
		out = append(out, ref)
	}
	return out, nil
}

func (r *InMemoryRegistry) CreatedAt(_ context.Context, ref StreamRef) (time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.createdAt[ref], nil
}
