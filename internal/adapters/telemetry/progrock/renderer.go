package progrock

import (
	"fmt"
	"io"
	"sync"

	"github.com/vito/progrock"
)

const (
	iconDone   = "✓"
	iconCached = "~"
	iconFailed = "✗"
)

// Renderer is a progrock.Writer that prints one line per finished vertex and forwards
// every update to next.
type Renderer struct {
	out  io.Writer
	next progrock.Writer

	mu       sync.Mutex
	names    map[string]string
	cached   map[string]bool
	finished map[string]bool
}

// NewRenderer creates a Renderer. next may be nil.
func NewRenderer(out io.Writer, next progrock.Writer) *Renderer {
	return &Renderer{
		out:      out,
		next:     next,
		names:    make(map[string]string),
		cached:   make(map[string]bool),
		finished: make(map[string]bool),
	}
}

// WriteStatus records vertex updates and prints the ones that completed.
func (r *Renderer) WriteStatus(update *progrock.StatusUpdate) error {
	r.mu.Lock()
	for _, v := range update.Vertexes {
		r.apply(v)
	}
	r.mu.Unlock()

	if r.next != nil {
		return r.next.WriteStatus(update)
	}
	return nil
}

// apply merges one vertex update. Callers hold r.mu.
func (r *Renderer) apply(v *progrock.Vertex) {
	if v.Name != "" {
		r.names[v.Id] = v.Name
	}
	if v.Cached {
		r.cached[v.Id] = true
	}
	if v.Completed == nil || r.finished[v.Id] {
		return
	}
	r.finished[v.Id] = true

	name := r.names[v.Id]
	switch {
	case v.Error != nil:
		_, _ = fmt.Fprintf(r.out, "%s %s: %s\n", iconFailed, name, *v.Error)
	case r.cached[v.Id]:
		_, _ = fmt.Fprintf(r.out, "%s %s (cached)\n", iconCached, name)
	default:
		_, _ = fmt.Fprintf(r.out, "%s %s\n", iconDone, name)
	}
}

// Close closes next.
func (r *Renderer) Close() error {
	if r.next != nil {
		return r.next.Close()
	}
	return nil
}
