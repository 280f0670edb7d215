package ports

import (
	"context"
	"io"

	"go.trai.ch/stash/internal/core/domain"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// EventContext attributes the span to a node, project, target and task.
	EventContext *domain.BuildEventContext
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithSpanEventContext attributes the span to bec.
func WithSpanEventContext(bec domain.BuildEventContext) SpanOption {
	return func(cfg *SpanConfig) {
		cfg.EventContext = &bec
	}
}

// Telemetry records progress vertices for operator-facing output.
type Telemetry interface {
	// Record starts a new vertex.
	Record(ctx context.Context, name string, opts ...VertexOption) (context.Context, Vertex)
	// Close flushes and closes the recording session.
	Close() error
}

// Vertex is a single recorded unit of progress.
type Vertex interface {
	Stdout() io.Writer
	Stderr() io.Writer
	Log(level domain.LogLevel, msg string)
	// Complete marks the vertex as finished, failed when err is non-nil.
	Complete(err error)
	// Cached marks the vertex as satisfied from cached state.
	Cached()
}

// VertexConfig holds configuration for a starting vertex.
type VertexConfig struct {
	// Group is an optional label prepended to the vertex name.
	Group string
}

// VertexOption is a functional option for configuring a vertex.
type VertexOption func(*VertexConfig)

// WithVertexGroup prefixes the vertex name with group.
func WithVertexGroup(group string) VertexOption {
	return func(cfg *VertexConfig) {
		cfg.Group = group
	}
}

type vertexKey struct{}

// ContextWithVertex returns a copy of ctx carrying v.
func ContextWithVertex(ctx context.Context, v Vertex) context.Context {
	return context.WithValue(ctx, vertexKey{}, v)
}

// VertexFromContext returns the vertex stored in ctx, if any.
func VertexFromContext(ctx context.Context) (Vertex, bool) {
	v, ok := ctx.Value(vertexKey{}).(Vertex)
	return v, ok
}
