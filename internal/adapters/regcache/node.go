package regcache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/adapters/statecache"
)

// NodeID is the unique identifier for the registration store Graft node.
const NodeID graft.ID = "adapter.regcache"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{statecache.NodeID},
		Run: func(ctx context.Context) (*Store, error) {
			cache, err := graft.Dep[*statecache.Cache](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(cache), nil
		},
	})
}
