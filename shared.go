package inertia

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// SharedStore holds props shared by every page rendered by a Renderer,
// such as the application name or the authenticated user.
//
// A SharedStore is safe for concurrent use. Readers always observe a
// consistent snapshot of both static values and callbacks.
type SharedStore struct {
	values    map[string]any
	callbacks map[string]Lazy
	mu        sync.RWMutex
}

// NewSharedStore creates an empty SharedStore.
func NewSharedStore() *SharedStore {
	return &SharedStore{
		values:    make(map[string]any),
		callbacks: make(map[string]Lazy),
		mu:        sync.RWMutex{},
	}
}

// Share stores a static value under key. The value may be a Prop, in which
// case its capabilities apply to every page.
func (s *SharedStore) Share(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// ShareFunc stores a callback under key. The callback is invoked every time
// a snapshot is taken.
func (s *SharedStore) ShareFunc(key string, fn Lazy) {
	s.mu.Lock()
	s.callbacks[key] = fn
	s.mu.Unlock()
}

// ShareMap stores all values of m.
func (s *SharedStore) ShareMap(m map[string]any) {
	s.mu.Lock()
	maps.Copy(s.values, m)
	s.mu.Unlock()
}

// Shared returns a point-in-time snapshot of the shared props with every
// callback resolved. When a key holds both a static value and a callback,
// the callback wins.
func (s *SharedStore) Shared(ctx context.Context) (map[string]any, error) {
	s.mu.RLock()
	values := maps.Clone(s.values)
	callbacks := maps.Clone(s.callbacks)
	s.mu.RUnlock()

	if values == nil {
		values = make(map[string]any, len(callbacks))
	}

	for key, fn := range callbacks {
		v, err := fn.Value(ctx)
		if err != nil {
			return nil, fmt.Errorf("inertia: failed to resolve shared prop %q: %w", key, err)
		}

		values[key] = v
	}

	return values, nil
}

// ClearShared removes every shared prop.
func (s *SharedStore) ClearShared() {
	s.mu.Lock()
	clear(s.values)
	clear(s.callbacks)
	s.mu.Unlock()
}
