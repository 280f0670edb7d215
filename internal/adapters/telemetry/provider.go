// Package telemetry provides the OpenTelemetry tracer used by the state layer.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
)

// InstrumentationName names the tracer created for stash.
const InstrumentationName = "go.trai.ch/stash"

// Span attribute keys for the build event context.
const (
	AttrSubmission      = "stash.context.submission"
	AttrNode            = "stash.context.node"
	AttrProjectInstance = "stash.context.project_instance"
	AttrProjectContext  = "stash.context.project_context"
	AttrTarget          = "stash.context.target"
	AttrTask            = "stash.context.task"
	AttrBuildRequest    = "stash.context.build_request_id"
)

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer creates a new OTelTracer from the global provider.
func NewOTelTracer(name string) *OTelTracer {
	return &OTelTracer{tracer: otel.Tracer(name)}
}

// NewOTelTracerFrom creates a new OTelTracer from tp.
func NewOTelTracerFrom(tp trace.TracerProvider, name string) *OTelTracer {
	return &OTelTracer{tracer: tp.Tracer(name)}
}

// Start creates a new span. A span started with an event context carries its ids as attributes.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var startOpts []trace.SpanStartOption
	if cfg.EventContext != nil {
		startOpts = append(startOpts, trace.WithAttributes(contextAttributes(*cfg.EventContext)...))
	}

	ctx, span := t.tracer.Start(ctx, name, startOpts...)
	return ctx, &OTelSpan{span: span}
}

func contextAttributes(bec domain.BuildEventContext) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrSubmission, int(bec.SubmissionID())),
		attribute.Int(AttrNode, int(bec.NodeID())),
		attribute.Int(AttrProjectInstance, int(bec.ProjectInstanceID())),
		attribute.Int(AttrProjectContext, int(bec.ProjectContextID())),
		attribute.Int(AttrTarget, int(bec.TargetID())),
		attribute.Int(AttrTask, int(bec.TaskID())),
		attribute.Int64(AttrBuildRequest, bec.BuildRequestID()),
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span trace.Span
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int32:
		s.span.SetAttributes(attribute.Int(key, int(v)))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case uint32:
		s.span.SetAttributes(attribute.Int64(key, int64(v)))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write satisfies io.Writer by adding a log event to the span.
func (s *OTelSpan) Write(p []byte) (n int, err error) {
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
