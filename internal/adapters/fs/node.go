package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/core/ports"
)

const (
	LocalNodeID      graft.ID = "adapter.fs.local"
	FileSystemNodeID graft.ID = "adapter.fs.filesystem"
	WalkerNodeID     graft.ID = "adapter.fs.walker"
)

func init() {
	// Concrete filesystem shared by the port and the walker.
	graft.Register(graft.Node[*FileSystem]{
		ID:        LocalNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (*FileSystem, error) {
			return NewLocal(), nil
		},
	})

	graft.Register(graft.Node[ports.FileSystem]{
		ID:        FileSystemNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{LocalNodeID},
		Run: func(ctx context.Context) (ports.FileSystem, error) {
			fsys, err := graft.Dep[*FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			return fsys, nil
		},
	})

	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{LocalNodeID},
		Run: func(ctx context.Context) (*Walker, error) {
			fsys, err := graft.Dep[*FileSystem](ctx)
			if err != nil {
				return nil, err
			}
			return NewWalker(fsys), nil
		},
	})
}
