// Package freshness decides whether tracked inputs changed since they were snapshotted.
package freshness

import (
	"time"

	"go.trai.ch/stash/internal/core/ports"
)

// Tracker holds the existence and modification time of one path, captured once when the
// tracker is created. The snapshot never changes; HasChanged compares it with the live
// filesystem each time it is called.
type Tracker struct {
	fs      ports.FileSystem
	path    string
	existed bool
	modTime time.Time
}

// NewTracker snapshots path. A path that cannot be stated is recorded as not existing.
func NewTracker(fs ports.FileSystem, path string) *Tracker {
	t := &Tracker{fs: fs, path: path}
	if info, err := fs.Stat(path); err == nil {
		t.existed = true
		t.modTime = info.ModTime()
	}
	return t
}

// Path returns the tracked path.
func (t *Tracker) Path() string { return t.path }

// ExistedAtSnapshot reports whether the path existed when the tracker was created.
func (t *Tracker) ExistedAtSnapshot() bool { return t.existed }

// ModTimeAtSnapshot returns the modification time captured at creation.
// It is the zero time when the path did not exist.
func (t *Tracker) ModTimeAtSnapshot() time.Time { return t.modTime }

// HasChanged reports whether the path may differ from its snapshot. It returns false only
// when the path existed at snapshot time, still exists, and its modification time is exactly
// the one captured. A path that was missing at snapshot time is always changed, as is one
// that can no longer be stated for any reason.
func (t *Tracker) HasChanged() bool {
	if !t.existed {
		return true
	}
	info, err := t.fs.Stat(t.path)
	if err != nil {
		return true
	}
	return !info.ModTime().Equal(t.modTime)
}
