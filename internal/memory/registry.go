package memory

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry hands out named collections, creating each at most once even
// under concurrent first access.
type Registry struct {
	embedder Embedder

	mu          sync.RWMutex
	collections map[string]*Collection
	group       singleflight.Group
}

// NewRegistry builds a registry whose collections embed through embedder.
func NewRegistry(embedder Embedder) *Registry {
	return &Registry{
		embedder:    embedder,
		collections: make(map[string]*Collection),
	}
}

// Get returns the named collection, creating it on first access.
// Concurrent callers racing on the same name observe the same instance.
func (r *Registry) Get(name string) *Collection {
	r.mu.RLock()
	col, ok := r.collections[name]
	r.mu.RUnlock()
	if ok {
		return col
	}

	v, _, _ := r.group.Do(name, func() (any, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.collections[name]; ok {
			return existing, nil
		}
		created := NewCollection(name, r.embedder)
		r.collections[name] = created
		return created, nil
	})
	return v.(*Collection)
}

// Drop deletes the named collection and all its pairs. Dropping an absent
// name is a no-op.
func (r *Registry) Drop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.collections, name)
}

// Names lists existing collection names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	return names
}
