package inertia

import (
	"context"
	"maps"
	"net/http"
	"sync"
)

type flashCtxKey struct{}

//nolint:gochecknoglobals
var kFlashCtxKey = flashCtxKey{}

// FlashCarrier persists flash data between a response and the next request
// of the same client, typically across a redirect.
//
// Implementations are found in the inertiaflash package.
type FlashCarrier interface {
	// Load returns the data saved by the previous response, if any.
	Load(r *http.Request) (map[string]any, error)

	// Save stores data for the next request.
	Save(w http.ResponseWriter, r *http.Request, data map[string]any) error

	// Clear discards the stored data.
	Clear(w http.ResponseWriter, r *http.Request) error
}

// Flash holds one-time messages of a single request.
//
// Values set during the request are delivered with the first page rendered
// for it, or handed to the FlashCarrier if the request ends with a redirect.
// Values carried over from the previous request are delivered with every
// page rendered during this request.
type Flash struct {
	incoming map[string]any
	outgoing map[string]any
	mu       sync.Mutex
}

func newFlash(incoming map[string]any) *Flash {
	return &Flash{
		incoming: incoming,
		outgoing: make(map[string]any),
		mu:       sync.Mutex{},
	}
}

// Set stores value under key for delivery to the client.
func (f *Flash) Set(key string, value any) {
	f.mu.Lock()
	f.outgoing[key] = value
	f.mu.Unlock()
}

// Peek returns a copy of the data that would be delivered, without
// consuming it.
func (f *Flash) Peek() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	m := make(map[string]any, len(f.incoming)+len(f.outgoing))
	maps.Copy(m, f.incoming)
	maps.Copy(m, f.outgoing)

	return m
}

// Consume returns the carried-over data merged with the values set during
// this request, and forgets the latter. A value set during this request wins
// over a carried-over value with the same key.
//
// Consume returns nil if there is nothing to deliver.
func (f *Flash) Consume() map[string]any {
	if f == nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.incoming) == 0 && len(f.outgoing) == 0 {
		return nil
	}

	m := make(map[string]any, len(f.incoming)+len(f.outgoing))
	maps.Copy(m, f.incoming)
	maps.Copy(m, f.outgoing)

	clear(f.outgoing)

	return m
}

// pending returns the values set during this request that haven't been
// delivered yet.
func (f *Flash) pending() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.outgoing) == 0 {
		return nil
	}

	return maps.Clone(f.outgoing)
}

// FlashFromRequest returns the Flash of r, attaching an empty one if the
// request carries none.
func FlashFromRequest(r *http.Request) *Flash {
	if f, ok := r.Context().Value(kFlashCtxKey).(*Flash); ok && f != nil {
		return f
	}

	f := newFlash(nil)
	*r = *r.WithContext(context.WithValue(r.Context(), kFlashCtxKey, f))

	return f
}

// SetFlash stores value under key in the flash data of r.
//
// The value is delivered with the next page rendered for this client,
// whether during this request or after a redirect.
func SetFlash(r *http.Request, key string, value any) {
	FlashFromRequest(r).Set(key, value)
}

func withFlash(r *http.Request, f *Flash) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), kFlashCtxKey, f))
}
