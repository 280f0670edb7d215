// Package regcache is the registration-record state blob: an append-only, ordered list of
// primary/secondary path pairs persisted through the state cache.
package regcache

import (
	"iter"

	"go.trai.ch/stash/internal/adapters/statecache"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// Kind is the state kind tag of a RegistrationCache.
	Kind domain.StateKind = "registration"

	// SchemaVersion is the current payload layout version.
	SchemaVersion uint32 = 1
)

var _ statecache.Blob = (*RegistrationCache)(nil)

// RegistrationCache holds registration records in the order they were added.
// It is not safe for concurrent mutation.
type RegistrationCache struct {
	entries []domain.RegistrationRecord
}

// New creates an empty RegistrationCache.
func New() *RegistrationCache {
	return &RegistrationCache{}
}

// StateKind implements statecache.Blob.
func (c *RegistrationCache) StateKind() domain.StateKind { return Kind }

// SchemaVersion implements statecache.Blob.
func (c *RegistrationCache) SchemaVersion() uint32 { return SchemaVersion }

// Count returns the number of entries.
func (c *RegistrationCache) Count() int {
	return len(c.entries)
}

// Add appends a pair. Duplicates are kept.
func (c *RegistrationCache) Add(primaryPath, secondaryPath string) {
	c.entries = append(c.entries, domain.RegistrationRecord{
		PrimaryPath:   primaryPath,
		SecondaryPath: secondaryPath,
	})
}

// Entry returns the pair at index. An index outside [0, Count()) is a caller bug and panics.
func (c *RegistrationCache) Entry(index int) domain.RegistrationRecord {
	if index < 0 || index >= len(c.entries) {
		err := zerr.With(domain.ErrEntryOutOfRange, "index", index)
		panic(zerr.With(err, "count", len(c.entries)))
	}
	return c.entries[index]
}

// Entries yields every pair with its index, in insertion order.
func (c *RegistrationCache) Entries() iter.Seq2[int, domain.RegistrationRecord] {
	return func(yield func(int, domain.RegistrationRecord) bool) {
		for i, entry := range c.entries {
			if !yield(i, entry) {
				return
			}
		}
	}
}

// Register adds the registration kind to r.
func Register(r *statecache.Registry) error {
	return r.Register(func() statecache.Blob { return New() })
}
