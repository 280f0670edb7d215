// Package statecache persists named state blobs between build runs.
//
// Every operation is total for ordinary failures: a missing, unreadable, or stale file
// is a cache miss, and a failed write or delete is logged and skipped. Only critical faults
// (see domain.FaultKind.IsCritical) are returned to the caller.
package statecache

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"go.trai.ch/stash/internal/core/domain"
	"go.trai.ch/stash/internal/core/ports"
	"go.trai.ch/zerr"
)

// AnyKind accepts a state file of any registered kind in Load.
const AnyKind domain.StateKind = ""

// Span attribute keys.
const (
	attrPath    = "stash.path"
	attrKind    = "stash.kind"
	attrOutcome = "stash.outcome"
)

// Cache reads and writes state files through a FileSystem.
// It holds no mutable state of its own and is safe for concurrent use; callers must not
// use the same path from two goroutines at once.
type Cache struct {
	fs       ports.FileSystem
	logger   ports.Logger
	tracer   ports.Tracer
	registry *Registry
}

// New creates a Cache.
func New(fs ports.FileSystem, logger ports.Logger, tracer ports.Tracer, registry *Registry) *Cache {
	return &Cache{
		fs:       fs,
		logger:   logger,
		tracer:   tracer,
		registry: registry,
	}
}

// Registry returns the kind registry used to decode state files.
func (c *Cache) Registry() *Registry {
	return c.registry
}

// Save writes blob to path, replacing any existing file. An empty path is a no-op.
func (c *Cache) Save(ctx context.Context, path string, blob Blob) error {
	if path == "" || blob == nil {
		return nil
	}

	bec := domain.EventContextFrom(ctx)
	_, span := c.tracer.Start(ctx, "statecache.save", ports.WithSpanEventContext(bec))
	defer span.End()
	span.SetAttribute(attrPath, path)
	span.SetAttribute(attrKind, string(blob.StateKind()))
	log := c.logger.With(bec)

	outcome := domain.OutcomeStored
	defer func() { span.SetAttribute(attrOutcome, string(outcome)) }()

	payload, err := marshal(path, blob)
	if err != nil {
		if domain.IsCritical(err) {
			outcome = domain.OutcomeFailed
			span.RecordError(err)
			return critical(err, domain.ErrStateEncodeFailed, path, bec)
		}
		outcome = domain.OutcomeSkipped
		log.LogWarning(domain.CodeStateWriteFailed, path, err.Error())
		return nil
	}

	data := encodeEnvelope(envelope{
		Kind:          blob.StateKind(),
		SchemaVersion: blob.SchemaVersion(),
		Payload:       payload,
	})

	if err := c.write(path, data); err != nil {
		if domain.IsCritical(err) {
			outcome = domain.OutcomeFailed
			span.RecordError(err)
			return critical(err, domain.ErrStateWriteFailed, path, bec)
		}
		outcome = domain.OutcomeSkipped
		log.LogWarning(domain.CodeStateWriteFailed, path, err.Error())
	}
	return nil
}

// Load reads the blob stored at path. It returns nil and no error when there is no usable
// value: the path is empty, the file is missing or unreadable, or it holds another kind or
// schema version than requested. Pass AnyKind to accept any registered kind.
func (c *Cache) Load(ctx context.Context, path string, kind domain.StateKind) (Blob, error) {
	if path == "" {
		return nil, nil
	}

	bec := domain.EventContextFrom(ctx)
	_, span := c.tracer.Start(ctx, "statecache.load", ports.WithSpanEventContext(bec))
	defer span.End()
	span.SetAttribute(attrPath, path)
	span.SetAttribute(attrKind, string(kind))
	log := c.logger.With(bec)

	blob, err := c.load(log, path, kind)
	switch {
	case err != nil:
		span.SetAttribute(attrOutcome, string(domain.OutcomeFailed))
		span.RecordError(err)
		return nil, critical(err, domain.ErrStateReadFailed, path, bec)
	case blob == nil:
		span.SetAttribute(attrOutcome, string(domain.OutcomeMiss))
	default:
		span.SetAttribute(attrOutcome, string(domain.OutcomeHit))
	}
	return blob, nil
}

// Delete removes the file at path. An empty path or a missing file is a no-op.
func (c *Cache) Delete(ctx context.Context, path string) error {
	_, err := c.Remove(ctx, path)
	return err
}

// Remove deletes the file at path and reports whether a file was removed.
// A missing file and an ordinary failure, which is logged, both report false with a nil error.
func (c *Cache) Remove(ctx context.Context, path string) (bool, error) {
	if path == "" {
		return false, nil
	}

	bec := domain.EventContextFrom(ctx)
	_, span := c.tracer.Start(ctx, "statecache.delete", ports.WithSpanEventContext(bec))
	defer span.End()
	span.SetAttribute(attrPath, path)

	err := c.fs.Remove(path)
	switch {
	case err == nil:
		span.SetAttribute(attrOutcome, string(domain.OutcomeDeleted))
		return true, nil
	case domain.KindOf(err) == domain.KindNotExist:
		span.SetAttribute(attrOutcome, string(domain.OutcomeDeleted))
		return false, nil
	case domain.IsCritical(err):
		span.SetAttribute(attrOutcome, string(domain.OutcomeFailed))
		span.RecordError(err)
		return false, critical(err, domain.ErrStateDeleteFailed, path, bec)
	default:
		span.SetAttribute(attrOutcome, string(domain.OutcomeSkipped))
		c.logger.With(bec).LogWarning(domain.CodeStateDeleteFailed, path, err.Error())
		return false, nil
	}
}

// LoadAs loads the blob at path and returns it as T. A blob of another Go type is logged
// and reported as no value, the same as any other miss.
func LoadAs[T Blob](ctx context.Context, c *Cache, path string) (T, error) {
	var zero T

	blob, err := c.Load(ctx, path, AnyKind)
	if err != nil || blob == nil {
		return zero, err
	}

	typed, ok := blob.(T)
	if !ok {
		c.logger.With(domain.EventContextFrom(ctx)).LogWarning(
			domain.CodeStateTypeMismatch, path, fmt.Sprintf("%T", blob), fmt.Sprintf("%T", zero),
		)
		return zero, nil
	}
	return typed, nil
}

// write replaces the file at path with data.
func (c *Cache) write(path string, data []byte) error {
	if err := c.fs.Remove(path); err != nil && domain.KindOf(err) != domain.KindNotExist {
		return err
	}

	w, err := c.fs.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return asFault("write", path, err)
	}
	return asFault("close", path, w.Close())
}

// load returns nil, nil for every rejected file after logging why it was rejected.
func (c *Cache) load(log ports.Logger, path string, kind domain.StateKind) (Blob, error) {
	data, err := c.read(path)
	if err != nil {
		switch {
		case domain.IsCritical(err):
			return nil, err
		case domain.KindOf(err) != domain.KindNotExist:
			log.LogMessage(domain.CodeStateUnreadable, path, err.Error())
		}
		return nil, nil
	}

	return c.decode(log, path, kind, data)
}

func (c *Cache) read(path string) ([]byte, error) {
	r, err := c.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close() //nolint:errcheck // Read-only handle

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, asFault("read", path, err)
	}
	return data, nil
}

// decode turns data into a blob of kind. A panic while decoding is a critical fault.
func (c *Cache) decode(log ports.Logger, path string, kind domain.StateKind, data []byte) (blob Blob, err error) {
	defer func() {
		if r := recover(); r != nil {
			blob = nil
			err = domain.NewFault(domain.KindRuntimeFault, "decode", path, zerr.New(fmt.Sprintf("panic: %v", r)))
		}
	}()

	env, err := decodeEnvelope(data)
	if err != nil {
		log.LogMessage(domain.CodeStateUnreadable, path, err.Error())
		return nil, nil
	}

	version, newBlob, ok := c.registry.Lookup(env.Kind)
	if !ok {
		log.LogMessage(domain.CodeStateUnreadable, path,
			fmt.Sprintf("%s %q", domain.ErrUnknownStateKind.Error(), env.Kind))
		return nil, nil
	}

	if kind != AnyKind && env.Kind != kind {
		log.LogWarning(domain.CodeStateKindMismatch, path, string(env.Kind), string(kind))
		return nil, nil
	}

	if env.SchemaVersion != version {
		log.LogMessage(domain.CodeStateSchemaDrift, path, env.SchemaVersion, version)
		return nil, nil
	}

	blob = newBlob()
	if err := blob.UnmarshalState(env.Payload); err != nil {
		log.LogMessage(domain.CodeStateUnreadable, path, err.Error())
		return nil, nil
	}
	return blob, nil
}

// marshal encodes blob. A panic while encoding is a critical fault; an error is ordinary.
func marshal(path string, blob Blob) (payload []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = domain.NewFault(domain.KindRuntimeFault, "encode", path, zerr.New(fmt.Sprintf("panic: %v", r)))
		}
	}()

	payload, err = blob.MarshalState()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrStateEncodeFailed.Error())
	}
	return payload, nil
}

// asFault classifies errors returned by handles the FileSystem gave out, which may not
// carry a Fault themselves.
func asFault(op, path string, err error) error {
	if err == nil || domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return domain.NewFault(domain.KindIO, op, path, err)
}

// critical wraps a fault that must reach the caller.
func critical(err, sentinel error, path string, bec domain.BuildEventContext) error {
	wrapped := zerr.Wrap(err, sentinel.Error())
	wrapped = zerr.With(wrapped, "path", path)
	return zerr.With(wrapped, "context", bec.String())
}
