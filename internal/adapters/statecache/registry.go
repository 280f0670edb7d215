package statecache

import (
	"slices"
	"sync"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/zerr"
)

// Blob is a value the cache can persist. Implementations must be safe to construct empty
// and fill with UnmarshalState.
type Blob interface {
	// StateKind returns the stable tag identifying the blob's shape.
	StateKind() domain.StateKind
	// SchemaVersion is bumped whenever the payload layout changes incompatibly.
	SchemaVersion() uint32
	MarshalState() ([]byte, error)
	UnmarshalState(data []byte) error
}

// Constructor returns a new, empty blob of one kind.
type Constructor func() Blob

type registration struct {
	version uint32
	newBlob Constructor
}

// Registry maps kind tags to the schema version and constructor used to decode them.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	kinds map[domain.StateKind]registration
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[domain.StateKind]registration)}
}

// Register adds a kind. The kind tag and schema version are taken from a blob built by newBlob.
func (r *Registry) Register(newBlob Constructor) error {
	sample := newBlob()
	kind := sample.StateKind()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.kinds[kind]; exists {
		return zerr.With(domain.ErrDuplicateStateKind, "kind", string(kind))
	}
	r.kinds[kind] = registration{
		version: sample.SchemaVersion(),
		newBlob: newBlob,
	}
	return nil
}

// Lookup returns the registration for kind.
func (r *Registry) Lookup(kind domain.StateKind) (version uint32, newBlob Constructor, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.kinds[kind]
	if !ok {
		return 0, nil, false
	}
	return reg.version, reg.newBlob, true
}

// Kinds returns the registered kind tags in sorted order.
func (r *Registry) Kinds() []domain.StateKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.StateKind, 0, len(r.kinds))
	for kind := range r.kinds {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}
