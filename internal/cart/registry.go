package cart

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity bounds how many engines a registry keeps in memory.
const DefaultCapacity = 10000

// Registry hands out one Engine per shopper session, each bound to the
// session's scope of the shared store. Least recently used engines are
// dropped from memory once capacity is reached; their slots stay in the
// store and are reloaded on the next Get.
type Registry struct {
	store    kvstore.Store
	opts     []Option
	capacity int

	mu      sync.Mutex
	engines map[string]*list.Element
	lru     *list.List         // front is most recently used
	sfg     singleflight.Group // one slot read per session even under concurrent first requests
}

type entry struct {
	sessionID string
	engine    *Engine
}

// NewRegistry builds a registry. A capacity of zero or less uses
// DefaultCapacity.
func NewRegistry(store kvstore.Store, capacity int, opts ...Option) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Registry{
		store:    store,
		opts:     opts,
		capacity: capacity,
		engines:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the session's engine, loading it from the store on first use.
// An engine whose slot could not be read is handed out but not cached, so
// the next Get tries the store again.
func (r *Registry) Get(ctx context.Context, sessionID string) *Engine {
	if e, ok := r.lookup(sessionID); ok {
		return e
	}

	v, _, _ := r.sfg.Do(sessionID, func() (interface{}, error) {
		// the load outlives the request that triggered it
		engine, err := newEngine(context.WithoutCancel(ctx), kvstore.Scope(r.store, sessionID), r.opts...)
		if err != nil {
			return engine, nil
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if el, ok := r.engines[sessionID]; ok {
			return el.Value.(*entry).engine, nil
		}
		r.engines[sessionID] = r.lru.PushFront(&entry{sessionID: sessionID, engine: engine})
		r.trim()
		return engine, nil
	})
	return v.(*Engine)
}

func (r *Registry) lookup(sessionID string) (*Engine, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.engines[sessionID]
	if !ok {
		return nil, false
	}
	r.lru.MoveToFront(el)
	return el.Value.(*entry).engine, true
}

// trim drops least recently used engines above capacity. Must hold r.mu.
func (r *Registry) trim() {
	for r.lru.Len() > r.capacity {
		el := r.lru.Back()
		r.lru.Remove(el)
		delete(r.engines, el.Value.(*entry).sessionID)
	}
}

// Evict forgets the cached engine; the next Get reloads from the store.
func (r *Registry) Evict(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.engines[sessionID]; ok {
		r.lru.Remove(el)
		delete(r.engines, sessionID)
	}
}

// Drop evicts the session and deletes its persisted cart.
func (r *Registry) Drop(ctx context.Context, sessionID string) error {
	r.Evict(sessionID)
	if err := kvstore.Scope(r.store, sessionID).Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("failed to drop cart for session %s: %w", sessionID, err)
	}
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}
