package domain

import (
	"path/filepath"
	"time"
)

const (
	// StashDirName is the name of the internal workspace directory.
	StashDirName = ".stash"

	// StateDirName is the name of the state file directory.
	StateDirName = "state"

	// StashFileName is the name of the configuration file.
	StashFileName = "stash.yaml"

	// StateFileExt is the extension used for named state files.
	StateFileExt = ".state"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// DefaultWatchDebounce is the default window used to coalesce watch events.
	DefaultWatchDebounce = 200 * time.Millisecond
)

// DefaultStatePath returns the default directory for state files.
// It joins .stash and state.
func DefaultStatePath() string {
	return filepath.Join(StashDirName, StateDirName)
}
