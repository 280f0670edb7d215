package freshness

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/adapters/fs"     //nolint:depguard // Wired in engine wiring
	"go.trai.ch/stash/internal/adapters/logger" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/stash/internal/core/ports"
)

// NodeID is the unique identifier for the freshness factory Graft node.
const NodeID graft.ID = "engine.freshness"

func init() {
	graft.Register(graft.Node[*Factory]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{fs.FileSystemNodeID, logger.NodeID},
		Run: func(ctx context.Context) (*Factory, error) {
			fsys, err := graft.Dep[ports.FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewFactory(fsys, log), nil
		},
	})
}
