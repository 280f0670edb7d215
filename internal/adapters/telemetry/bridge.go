package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
)

// outcomeKey is the attribute the state cache sets on every span.
const outcomeKey = "stash.outcome"

// ProgressBridge implements sdktrace.SpanProcessor to mirror spans as progress vertices.
// A span that ends with a cache hit outcome marks its vertex cached.
type ProgressBridge struct {
	telemetry ports.Telemetry

	mu       sync.Mutex
	vertices map[string]ports.Vertex
}

var _ sdktrace.SpanProcessor = (*ProgressBridge)(nil)

// NewProgressBridge returns a new ProgressBridge recording into tel.
func NewProgressBridge(tel ports.Telemetry) *ProgressBridge {
	return &ProgressBridge{
		telemetry: tel,
		vertices:  make(map[string]ports.Vertex),
	}
}

// OnStart is called when a span starts.
func (b *ProgressBridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if !sc.IsValid() {
		return
	}

	_, vertex := b.telemetry.Record(parent, s.Name())

	b.mu.Lock()
	b.vertices[sc.SpanID().String()] = vertex
	b.mu.Unlock()
}

// OnEnd is called when a span ends.
func (b *ProgressBridge) OnEnd(s sdktrace.ReadOnlySpan) {
	id := s.SpanContext().SpanID().String()

	b.mu.Lock()
	vertex, ok := b.vertices[id]
	delete(b.vertices, id)
	b.mu.Unlock()

	if !ok {
		return
	}

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "operation failed"
		}
		vertex.Complete(errors.New(desc))
		return
	}

	for _, kv := range s.Attributes() {
		if string(kv.Key) == outcomeKey && kv.Value.AsString() == string(domain.OutcomeHit) {
			vertex.Cached()
			break
		}
	}
	vertex.Complete(nil)
}

// ForceFlush does nothing.
func (b *ProgressBridge) ForceFlush(context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *ProgressBridge) Shutdown(context.Context) error {
	return nil
}

// NewProvider returns a TracerProvider whose spans are mirrored into tel.
func NewProvider(tel ports.Telemetry) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewProgressBridge(tel)))
}
