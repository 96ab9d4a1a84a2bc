// Package kvstore holds the string key-value slots the storefront persists
// shopper state into (cart, account, checkout summary).
package kvstore

import (
	"context"
	"errors"
	"fmt"
)

// Store is a last-write-wins string slot store. Get returns ErrNotFound for
// absent keys; Delete of an absent key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var ErrNotFound = errors.New("key not found")

type scoped struct {
	inner Store
	scope string
}

// Scope returns a view of s whose keys live under the given scope, so every
// shopper gets its own "storeCart", "demoUser", ... slots.
func Scope(s Store, scope string) Store {
	return &scoped{inner: s, scope: scope}
}

func (s *scoped) Get(ctx context.Context, key string) (string, error) {
	return s.inner.Get(ctx, s.key(key))
}

func (s *scoped) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, s.key(key), value)
}

func (s *scoped) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.key(key))
}

func (s *scoped) key(key string) string {
	return ScopedKey(s.scope, key)
}

func ScopedKey(scope, key string) string {
	return fmt.Sprintf("session:%s:%s", scope, key)
}
