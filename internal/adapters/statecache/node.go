package statecache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/adapters/fs"
	"go.trai.ch/stash/internal/adapters/logger"
	"go.trai.ch/stash/internal/adapters/telemetry"
	"go.trai.ch/stash/internal/core/ports"
)

// NodeID is the unique identifier for the state cache Graft node.
const NodeID graft.ID = "adapter.statecache"

func init() {
	graft.Register(graft.Node[*Cache]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.FileSystemNodeID, logger.NodeID, telemetry.TracerNodeID},
		Run: func(ctx context.Context) (*Cache, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tracer, err := graft.Dep[ports.Tracer](ctx)
			if err != nil {
				return nil, err
			}
			return New(fsys, log, tracer, NewRegistry()), nil
		},
	})
}
