package ports

import (
	"context"
	"iter"
)

// WatchOp is the kind of change a WatchEvent reports.
type WatchOp uint8

const (
	// OpCreate is a file creation.
	OpCreate WatchOp = iota + 1
	// OpWrite is a file modification.
	OpWrite
	// OpRemove is a file removal.
	OpRemove
	// OpRename is a file rename.
	OpRename
	// OpChmod is a metadata change, which includes touch.
	OpChmod
)

// WatchEvent is a single filesystem notification.
type WatchEvent struct {
	Path      string
	Operation WatchOp
}

// Watcher reports filesystem changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching the given directories.
	Start(ctx context.Context, dirs []string) error
	// Stop releases all resources.
	Stop() error
	// Events yields events until the watcher stops.
	Events() iter.Seq[WatchEvent]
}
