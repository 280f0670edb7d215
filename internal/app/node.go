package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/regcache"           //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/statecache"         //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/adapters/watcher"            //nolint:depguard // Wired in app layer
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/stash/internal/engine/freshness"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			statecache.NodeID,
			regcache.NodeID,
			freshness.NodeID,
			fs.WalkerNodeID,
			watcher.NodeID,
			progrock.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.ConcreteNodeID,
			progrock.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[*logger.Logger](ctx)
			if err != nil {
				return nil, err
			}
			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(app, log, tel), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	cache, err := graft.Dep[*statecache.Cache](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[*regcache.Store](ctx)
	if err != nil {
		return nil, err
	}

	trackers, err := graft.Dep[*freshness.Factory](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[*fs.Walker](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	tel, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, cache, store, trackers, walker, w, tel), nil
}
