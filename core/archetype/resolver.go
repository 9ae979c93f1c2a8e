// Package archetype resolves response archetype names to their stored ids.
// The directory itself is external; this package only adds the per-process
// cache in front of it.
package archetype

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// UnassignedID is persisted when no archetype can be resolved. Decisions
// never fail on a missing archetype.
const UnassignedID int64 = 0

// Directory is the external lookup keyed on archetype name.
type Directory interface {
	ArchetypeID(ctx context.Context, name string) (int64, error)
}

const defaultCacheSize = 256

// Resolver caches directory lookups for the process lifetime. The archetype
// catalog is small and effectively static, so entries are never invalidated.
type Resolver struct {
	directory Directory
	cache     *lru.Cache[string, int64]
}

// NewResolver creates a resolver over a directory. directory may be nil, in
// which case every lookup resolves to UnassignedID.
func NewResolver(directory Directory) (*Resolver, error) {
	cache, err := lru.New[string, int64](defaultCacheSize)
	if err != nil {
		return nil, fmt.Errorf("archetype cache: %w", err)
	}
	return &Resolver{directory: directory, cache: cache}, nil
}

// Resolve returns the id for an archetype name, consulting the cache first.
// Unknown names and directory failures resolve to UnassignedID.
func (r *Resolver) Resolve(ctx context.Context, name string) int64 {
	if name == "" || r.directory == nil {
		return UnassignedID
	}
	if id, ok := r.cache.Get(name); ok {
		return id
	}

	id, err := r.directory.ArchetypeID(ctx, name)
	if err != nil {
		return UnassignedID
	}
	r.cache.Add(name, id)
	return id
}
