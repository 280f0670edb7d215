package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stash/internal/adapters/logger"
	"go.trai.ch/stash/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App       *App
	Logger    ports.Logger
	Output    *logger.Logger
	Telemetry ports.Telemetry
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(app *App, log *logger.Logger, tel ports.Telemetry) *Components {
	return &Components{
		App:       app,
		Logger:    log,
		Output:    log,
		Telemetry: tel,
	}
}

// NewApp resolves the registered Graft nodes into ready-to-use Components.
func NewApp(ctx context.Context) (*Components, error) {
	c, _, err := graft.ExecuteFor[*Components](ctx)
	return c, err
}
