package watcher

import (
	"maps"
	"slices"
	"sync"
	"time"
	"unique"
)

// Debouncer coalesces bursts of change notifications into one sorted batch of paths.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[unique.Handle[string]]struct{}
	timer    *time.Timer
	window   time.Duration
	stopped  bool
	callback func(paths []string)

	// scheduled counts armed timers and running callbacks.
	scheduled sync.WaitGroup
}

// NewDebouncer creates a debouncer that calls callback once window has passed without new paths.
func NewDebouncer(window time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]struct{}),
		window:   window,
		callback: callback,
	}
}

// Add records path and restarts the window. Paths added after Stop are ignored.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[unique.Make(path)] = struct{}{}

	if d.timer != nil && d.timer.Stop() {
		d.scheduled.Done()
	}
	d.scheduled.Add(1)
	d.timer = time.AfterFunc(d.window, d.fire)
}

// Pending returns the number of paths waiting for the window to close.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

func (d *Debouncer) fire() {
	defer d.scheduled.Done()

	d.mu.Lock()
	d.timer = nil
	paths := d.drain()
	d.mu.Unlock()

	if len(paths) > 0 && d.callback != nil {
		d.callback(paths)
	}
}

// Flush runs the callback now with every pending path and blocks until it returns.
// If the timer has already fired, Flush waits for that callback instead.
// Flush must not be called concurrently with Add.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.scheduled.Done()
	}
	d.mu.Unlock()

	d.scheduled.Wait()

	d.mu.Lock()
	paths := d.drain()
	d.mu.Unlock()

	if len(paths) > 0 && d.callback != nil {
		d.callback(paths)
	}
}

// Stop discards pending paths and ignores later ones.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		if d.timer.Stop() {
			d.scheduled.Done()
		}
		d.timer = nil
	}
	clear(d.pending)
}

// drain must be called with mu held.
func (d *Debouncer) drain() []string {
	if len(d.pending) == 0 {
		return nil
	}
	paths := make([]string, 0, len(d.pending))
	for handle := range maps.Keys(d.pending) {
		paths = append(paths, handle.Value())
	}
	clear(d.pending)
	slices.Sort(paths)
	return paths
}
