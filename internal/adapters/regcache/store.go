package regcache

import (
	"context"

	"go.trai.ch/stash/internal/adapters/statecache"
)

// Store loads and saves registration caches through a statecache.Cache.
type Store struct {
	cache *statecache.Cache
}

// NewStore creates a Store and registers the registration kind with the cache's registry.
// Registering twice is not an error.
func NewStore(cache *statecache.Cache) *Store {
	_ = Register(cache.Registry())
	return &Store{cache: cache}
}

// Load returns the cache persisted at path, or an empty one when there is no usable value.
// Only critical faults are returned as errors.
func (s *Store) Load(ctx context.Context, path string) (*RegistrationCache, error) {
	return Load(ctx, s.cache, path)
}

// Save persists rc at path.
func (s *Store) Save(ctx context.Context, path string, rc *RegistrationCache) error {
	return s.cache.Save(ctx, path, rc)
}

// Load returns the registration cache persisted at path in cache, or an empty one.
func Load(ctx context.Context, cache *statecache.Cache, path string) (*RegistrationCache, error) {
	rc, err := statecache.LoadAs[*RegistrationCache](ctx, cache, path)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return New(), nil
	}
	return rc, nil
}
