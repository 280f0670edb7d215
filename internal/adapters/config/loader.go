// Package config provides the configuration loader for stash.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads the stash.yaml at path. A missing file yields domain.DefaultSettings.
// A relative state_dir is resolved against the directory holding the file.
func (l *Loader) Load(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return settings, nil
		}
		return settings, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var stashfile Stashfile
	if err := yaml.Unmarshal(data, &stashfile); err != nil {
		return settings, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	if err := apply(&settings, &stashfile); err != nil {
		return domain.DefaultSettings(), zerr.With(err, "path", path)
	}

	if !filepath.IsAbs(settings.StateDir) {
		settings.StateDir = filepath.Join(filepath.Dir(path), settings.StateDir)
	}
	return settings, nil
}

// Discover walks up from cwd and returns the first stash.yaml found.
// When none exists, it returns the path stash.yaml would have in cwd.
func (l *Loader) Discover(cwd string) string {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.StashFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			break
		}
		currentDir = parentDir
	}

	return filepath.Join(cwd, domain.StashFileName)
}

func apply(settings *domain.Settings, sf *Stashfile) error {
	if sf.StateDir != "" {
		settings.StateDir = sf.StateDir
	}

	switch domain.LogFormat(sf.LogFormat) {
	case "":
	case domain.LogFormatPretty, domain.LogFormatJSON:
		settings.LogFormat = domain.LogFormat(sf.LogFormat)
	default:
		return zerr.With(domain.ErrInvalidLogFormat, "log_format", sf.LogFormat)
	}

	if sf.NodeID != nil {
		settings.NodeID = *sf.NodeID
	}
	if sf.SubmissionID != nil {
		settings.SubmissionID = *sf.SubmissionID
	}

	if sf.Watch != nil && sf.Watch.Debounce != "" {
		d, err := time.ParseDuration(sf.Watch.Debounce)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "watch.debounce", sf.Watch.Debounce)
		}
		settings.WatchDebounce = d
	}
	return nil
}
