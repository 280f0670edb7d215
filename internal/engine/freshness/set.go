package freshness

import (
	"context"
	"runtime"
	"slices"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

// Set tracks many paths and re-checks them in parallel.
// Add must not be called concurrently with Changed.
type Set struct {
	fs       ports.FileSystem
	logger   ports.Logger
	trackers []*Tracker
	index    map[string]int
}

// NewSet creates a Set tracking paths. Duplicate paths are tracked once.
func NewSet(fs ports.FileSystem, logger ports.Logger, paths ...string) *Set {
	s := &Set{
		fs:     fs,
		logger: logger,
		index:  make(map[string]int, len(paths)),
	}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add snapshots path and starts tracking it. Adding a tracked path keeps the first snapshot.
func (s *Set) Add(path string) {
	if _, ok := s.index[path]; ok {
		return
	}
	s.index[path] = len(s.trackers)
	s.trackers = append(s.trackers, NewTracker(s.fs, path))
}

// Len returns the number of tracked paths.
func (s *Set) Len() int {
	return len(s.trackers)
}

// Paths returns the tracked paths in the order they were added.
func (s *Set) Paths() []string {
	paths := make([]string, len(s.trackers))
	for i, t := range s.trackers {
		paths[i] = t.Path()
	}
	return paths
}

// Tracker returns the tracker for path.
func (s *Set) Tracker(path string) (*Tracker, bool) {
	i, ok := s.index[path]
	if !ok {
		return nil, false
	}
	return s.trackers[i], true
}

// Changed re-checks every tracked path and returns the changed ones, sorted.
// Each change is logged against the build event context carried by ctx.
func (s *Set) Changed(ctx context.Context) ([]string, error) {
	changed := make([]bool, len(s.trackers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, t := range s.trackers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed[i] = t.HasChanged()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log := s.logger.With(domain.EventContextFrom(ctx))
	var paths []string
	for i, c := range changed {
		if c {
			paths = append(paths, s.trackers[i].Path())
			log.LogMessage(domain.CodeInputChanged, s.trackers[i].Path())
		}
	}
	slices.Sort(paths)
	return paths, nil
}

// AnyChanged reports whether at least one tracked path changed.
func (s *Set) AnyChanged(ctx context.Context) (bool, error) {
	paths, err := s.Changed(ctx)
	if err != nil {
		return false, err
	}
	return len(paths) > 0, nil
}

// Resnapshot returns a new Set tracking the same paths with fresh snapshots.
func (s *Set) Resnapshot() *Set {
	return NewSet(s.fs, s.logger, s.Paths()...)
}

// Existing returns a Set holding only the trackers whose path existed at snapshot time.
func (s *Set) Existing() *Set {
	out := &Set{
		fs:     s.fs,
		logger: s.logger,
		index:  make(map[string]int, len(s.trackers)),
	}
	for _, t := range s.trackers {
		if !t.ExistedAtSnapshot() {
			continue
		}
		out.index[t.Path()] = len(out.trackers)
		out.trackers = append(out.trackers, t)
	}
	return out
}

// Factory creates Sets that share a filesystem and logger.
type Factory struct {
	fs     ports.FileSystem
	logger ports.Logger
}

// NewFactory creates a Factory.
func NewFactory(fs ports.FileSystem, logger ports.Logger) *Factory {
	return &Factory{fs: fs, logger: logger}
}

// Track snapshots paths into a new Set.
func (f *Factory) Track(paths ...string) *Set {
	return NewSet(f.fs, f.logger, paths...)
}
