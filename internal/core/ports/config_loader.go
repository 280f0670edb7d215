package ports

import "go.trai.ch/stash/internal/core/domain"

// ConfigLoader defines the interface for loading stash settings.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration file at path. A missing file yields the default settings.
	Load(path string) (domain.Settings, error)
	// Discover returns the configuration file that applies to cwd.
	Discover(cwd string) string
}
