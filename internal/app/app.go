// Package app implements the application layer for stash.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/stash/internal/adapters/fs"
	"go.trai.ch/stash/internal/adapters/regcache"
	"go.trai.ch/stash/internal/adapters/statecache"
	"go.trai.ch/stash/internal/adapters/watcher"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/stash/internal/engine/freshness"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	cache        *statecache.Cache
	store        *regcache.Store
	trackers     *freshness.Factory
	walker       *fs.Walker
	watcher      ports.Watcher
	telemetry    ports.Telemetry
	settings     domain.Settings
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	cache *statecache.Cache,
	store *regcache.Store,
	trackers *freshness.Factory,
	walker *fs.Walker,
	w ports.Watcher,
	tel ports.Telemetry,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		cache:        cache,
		store:        store,
		trackers:     trackers,
		walker:       walker,
		watcher:      w,
		telemetry:    tel,
		settings:     domain.DefaultSettings(),
	}
}

// Configure loads the configuration file at path and applies it.
// An empty path discovers stash.yaml from the working directory upwards.
func (a *App) Configure(path string) (domain.Settings, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return a.settings, zerr.Wrap(err, "failed to get working directory")
		}
		path = a.configLoader.Discover(cwd)
	}

	settings, err := a.configLoader.Load(path)
	if err != nil {
		return settings, zerr.Wrap(err, "failed to load configuration")
	}
	a.settings = settings
	return settings, nil
}

// Settings returns the settings in effect.
func (a *App) Settings() domain.Settings {
	return a.settings
}

// StatePath resolves a state file argument. A bare name without a directory or extension
// names a file in the configured state directory; anything else is used as given.
func (a *App) StatePath(name string) string {
	if name == "" || strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') ||
		filepath.Ext(name) != "" {
		return name
	}
	return filepath.Join(a.settings.StateDir, name+domain.StateFileExt)
}

// Inspection describes the content of a state file.
type Inspection struct {
	Path          string
	Found         bool
	Kind          domain.StateKind
	SchemaVersion uint32
	Entries       []domain.RegistrationRecord
}

// Inspect decodes the state file at path, whatever registered kind it holds.
func (a *App) Inspect(ctx context.Context, path string) (Inspection, error) {
	ctx, vertex := a.telemetry.Record(ctx, "inspect "+path)

	result := Inspection{Path: path}
	blob, err := a.cache.Load(ctx, path, statecache.AnyKind)
	if err != nil {
		vertex.Complete(err)
		return result, err
	}
	if blob == nil {
		vertex.Complete(nil)
		return result, nil
	}

	result.Found = true
	result.Kind = blob.StateKind()
	result.SchemaVersion = blob.SchemaVersion()
	if rc, ok := blob.(*regcache.RegistrationCache); ok {
		result.Entries = collect(rc)
	}

	vertex.Cached()
	vertex.Complete(nil)
	return result, nil
}

// Register appends a primary/secondary pair to the registration cache at statePath and
// returns the number of entries after the write.
func (a *App) Register(ctx context.Context, statePath, primaryPath, secondaryPath string) (int, error) {
	if primaryPath == "" || secondaryPath == "" {
		return 0, zerr.With(domain.ErrEmptyRegistrationPath, "state", statePath)
	}

	ctx, vertex := a.telemetry.Record(ctx, "register "+primaryPath)

	rc, err := a.store.Load(ctx, statePath)
	if err != nil {
		vertex.Complete(err)
		return 0, err
	}

	rc.Add(primaryPath, secondaryPath)

	if err := a.store.Save(ctx, statePath, rc); err != nil {
		vertex.Complete(err)
		return 0, err
	}

	vertex.Complete(nil)
	return rc.Count(), nil
}

// Entries returns every registration pair stored at statePath, in insertion order.
func (a *App) Entries(ctx context.Context, statePath string) ([]domain.RegistrationRecord, error) {
	rc, err := a.store.Load(ctx, statePath)
	if err != nil {
		return nil, err
	}
	return collect(rc), nil
}

// Entry returns the registration pair at index in the cache stored at statePath.
func (a *App) Entry(ctx context.Context, statePath string, index int) (domain.RegistrationRecord, error) {
	rc, err := a.store.Load(ctx, statePath)
	if err != nil {
		return domain.RegistrationRecord{}, err
	}
	if index < 0 || index >= rc.Count() {
		err := zerr.With(domain.ErrEntryOutOfRange, "index", index)
		return domain.RegistrationRecord{}, zerr.With(err, "count", rc.Count())
	}
	return rc.Entry(index), nil
}

// Clean deletes the given state files. Without paths it deletes every file in the state directory.
// It returns the files that were actually removed; missing files and files that could not be
// removed are left out.
func (a *App) Clean(ctx context.Context, paths ...string) ([]string, error) {
	if len(paths) == 0 {
		if _, err := os.Stat(a.settings.StateDir); errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		paths = slices.Collect(a.walker.WalkFiles(a.settings.StateDir, nil))
	}

	var removed []string
	for _, path := range paths {
		ok, err := a.cache.Remove(ctx, path)
		if err != nil {
			return removed, err
		}
		if !ok {
			continue
		}
		removed = append(removed, path)
		a.logger.Info(fmt.Sprintf("removed %s", path))
	}
	return removed, nil
}

func collect(rc *regcache.RegistrationCache) []domain.RegistrationRecord {
	entries := make([]domain.RegistrationRecord, 0, rc.Count())
	for _, entry := range rc.Entries() {
		entries = append(entries, entry)
	}
	return entries
}

// Watch tracks every file under paths and calls onBatch with the sorted paths that changed
// after each debounced burst of filesystem events. Files created under a watched directory are
// reported and tracked from then on. A missing or deleted file is reported once and is tracked
// again only after it is recreated. Watch returns when ctx is done.
func (a *App) Watch(ctx context.Context, paths []string, onBatch func(changed []string)) error {
	if len(paths) == 0 {
		return domain.ErrNoPathsSpecified
	}

	var files []string
	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", p)
		}
		roots = append(roots, abs)
		if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
			// Missing inputs are tracked too and always count as changed.
			files = append(files, abs)
			continue
		}
		files = slices.AppendSeq(files, a.walker.WalkFiles(abs, nil))
	}

	var mu sync.Mutex
	set := a.trackers.Track(files...)
	a.logger.Info(fmt.Sprintf("watching %d files", set.Len()))

	check := func(batch []string) {
		mu.Lock()
		defer mu.Unlock()

		changed, err := set.Changed(ctx)
		if err != nil {
			return
		}

		// Paths that are gone were reported once and are only tracked again once recreated.
		next := set.Resnapshot().Existing()
		for _, p := range batch {
			if _, tracked := next.Tracker(p); tracked || !underAny(p, roots) || !isFile(p) {
				continue
			}
			next.Add(p)
			changed = append(changed, p)
		}
		set = next

		if len(changed) == 0 {
			return
		}
		slices.Sort(changed)
		changed = slices.Compact(changed)

		for _, p := range changed {
			_, vertex := a.telemetry.Record(ctx, p, ports.WithVertexGroup("watch"))
			vertex.Complete(nil)
		}
		if onBatch != nil {
			onBatch(changed)
		}
	}

	debouncer := watcher.NewDebouncer(a.settings.WatchDebounce, check)
	defer debouncer.Stop()

	if err := a.watcher.Start(ctx, roots); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	for event := range a.watcher.Events() {
		debouncer.Add(event.Path)
	}
	debouncer.Flush()

	return nil
}

func underAny(path string, roots []string) bool {
	for _, root := range roots {
		if path == root {
			return true
		}
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
