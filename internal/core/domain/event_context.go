package domain

import (
	"context"
	"fmt"
	"log/slog"
)

// Reserved ids meaning "not available". Consumers compare against these, so they must not change.
const (
	InvalidSubmissionID      int32 = -1
	InvalidNodeID            int32 = -2
	InvalidProjectInstanceID int32 = -1
	InvalidProjectContextID  int32 = -2
	InvalidTargetID          int32 = -1
	InvalidTaskID            int32 = -1
)

// ContextKey is the part of a BuildEventContext that takes part in equality.
// Submission and project instance ids are stored on the context but are not compared.
type ContextKey struct {
	NodeID           int32
	ProjectContextID int32
	TargetID         int32
	TaskID           int32
}

// BuildEventContext identifies the node, project, target and task a build event belongs to.
// It is an immutable value; copies may be shared freely between goroutines.
type BuildEventContext struct {
	submissionID      int32
	nodeID            int32
	projectInstanceID int32
	projectContextID  int32
	targetID          int32
	taskID            int32
}

// NewBuildEventContext creates a context from its six ids.
func NewBuildEventContext(
	submissionID, nodeID, projectInstanceID, projectContextID, targetID, taskID int32,
) BuildEventContext {
	return BuildEventContext{
		submissionID:      submissionID,
		nodeID:            nodeID,
		projectInstanceID: projectInstanceID,
		projectContextID:  projectContextID,
		targetID:          targetID,
		taskID:            taskID,
	}
}

// InvalidBuildEventContext returns the context used when no attribution is available.
// Every field holds its own invalid sentinel.
func InvalidBuildEventContext() BuildEventContext {
	return NewBuildEventContext(
		InvalidSubmissionID,
		InvalidNodeID,
		InvalidProjectInstanceID,
		InvalidProjectContextID,
		InvalidTargetID,
		InvalidTaskID,
	)
}

// SubmissionID returns the id of the top-level build request.
func (c BuildEventContext) SubmissionID() int32 { return c.submissionID }

// NodeID returns the id of the worker node.
func (c BuildEventContext) NodeID() int32 { return c.nodeID }

// ProjectInstanceID returns the project instance id.
func (c BuildEventContext) ProjectInstanceID() int32 { return c.projectInstanceID }

// ProjectContextID returns the project context id.
func (c BuildEventContext) ProjectContextID() int32 { return c.projectContextID }

// TargetID returns the target id.
func (c BuildEventContext) TargetID() int32 { return c.targetID }

// TaskID returns the task id.
func (c BuildEventContext) TaskID() int32 { return c.taskID }

// Key returns the fields that decide equality.
func (c BuildEventContext) Key() ContextKey {
	return ContextKey{
		NodeID:           c.nodeID,
		ProjectContextID: c.projectContextID,
		TargetID:         c.targetID,
		TaskID:           c.taskID,
	}
}

// Equal reports whether both contexts have the same Key.
func (c BuildEventContext) Equal(other BuildEventContext) bool {
	return c.Key() == other.Key()
}

// Hash combines the project context and node ids. Targets and tasks sharing a project
// context on one node collide here and are told apart by Equal.
func (c BuildEventContext) Hash() int32 {
	return c.projectContextID + (c.nodeID << 24)
}

// BuildRequestID packs the node id into the high 32 bits and the project context id into the
// low 32 bits. The project context id is sign-extended before the OR, so a negative id
// overwrites the node bits. Treat the result as an opaque correlation key.
func (c BuildEventContext) BuildRequestID() int64 {
	return int64(c.nodeID)<<32 | int64(c.projectContextID)
}

// IsValid reports whether the context differs from InvalidBuildEventContext.
func (c BuildEventContext) IsValid() bool {
	return c != InvalidBuildEventContext()
}

// String renders every stored field, including those ignored by Equal.
func (c BuildEventContext) String() string {
	return fmt.Sprintf(
		"Node=%d Submission=%d ProjectContext=%d ProjectInstance=%d Target=%d Task=%d",
		c.nodeID, c.submissionID, c.projectContextID, c.projectInstanceID, c.targetID, c.taskID,
	)
}

// LogValue implements slog.LogValuer.
func (c BuildEventContext) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("submission", int(c.submissionID)),
		slog.Int("node", int(c.nodeID)),
		slog.Int("project_instance", int(c.projectInstanceID)),
		slog.Int("project_context", int(c.projectContextID)),
		slog.Int("target", int(c.targetID)),
		slog.Int("task", int(c.taskID)),
	)
}

// SameContext is the nil-aware comparison for context references.
// The same pointer is always equal, a nil operand never equals a non-nil one,
// and two distinct pointers fall back to Equal.
func SameContext(a, b *BuildEventContext) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Equal(*b)
}

type eventContextKey struct{}

// WithEventContext returns a copy of ctx carrying the build event context.
func WithEventContext(ctx context.Context, bec BuildEventContext) context.Context {
	return context.WithValue(ctx, eventContextKey{}, bec)
}

// EventContextFrom returns the build event context stored in ctx, or the invalid context.
func EventContextFrom(ctx context.Context) BuildEventContext {
	if ctx == nil {
		return InvalidBuildEventContext()
	}
	if bec, ok := ctx.Value(eventContextKey{}).(BuildEventContext); ok {
		return bec
	}
	return InvalidBuildEventContext()
}
