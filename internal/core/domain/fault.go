package domain

import (
	"errors"
	"fmt"
)

// FaultKind classifies a failure reported by the filesystem or the state decoder.
type FaultKind uint8

const (
	// KindUnknown is an error that carries no classification. It is handled as KindIO.
	KindUnknown FaultKind = iota

	// Recoverable kinds.

	// KindNotExist means the file does not exist.
	KindNotExist
	// KindPermission means access was denied.
	KindPermission
	// KindLocked means the file is in use by another process.
	KindLocked
	// KindReadOnly means the file or filesystem is read-only.
	KindReadOnly
	// KindNoSpace means the disk or quota is full.
	KindNoSpace
	// KindIO is any other filesystem failure.
	KindIO
	// KindDecode means stored bytes could not be decoded.
	KindDecode

	// Critical kinds. The process may be compromised and must not continue the build unit.

	// KindOutOfMemory means an allocation failed.
	KindOutOfMemory
	// KindStackExhausted means the goroutine stack could not grow.
	KindStackExhausted
	// KindAborted means the worker was forcibly terminated.
	KindAborted
	// KindRuntimeFault means a runtime panic was recovered inside the state layer.
	KindRuntimeFault
)

var faultKindNames = map[FaultKind]string{
	KindUnknown:        "unknown",
	KindNotExist:       "not_exist",
	KindPermission:     "permission",
	KindLocked:         "locked",
	KindReadOnly:       "read_only",
	KindNoSpace:        "no_space",
	KindIO:             "io",
	KindDecode:         "decode",
	KindOutOfMemory:    "out_of_memory",
	KindStackExhausted: "stack_exhausted",
	KindAborted:        "aborted",
	KindRuntimeFault:   "runtime_fault",
}

// String returns the snake_case name of the kind.
func (k FaultKind) String() string {
	if name, ok := faultKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("fault_kind(%d)", uint8(k))
}

// IsCritical reports whether the kind is on the fatal allow-list.
func (k FaultKind) IsCritical() bool {
	switch k {
	case KindOutOfMemory, KindStackExhausted, KindAborted, KindRuntimeFault:
		return true
	default:
		return false
	}
}

// IsRecoverable reports whether the kind degrades to a cache miss.
// Unclassified errors are recoverable.
func (k FaultKind) IsRecoverable() bool {
	return !k.IsCritical()
}

// Fault is an error tagged with its FaultKind.
type Fault struct {
	Kind FaultKind
	Op   string
	Path string
	Err  error
}

// NewFault creates a Fault.
func NewFault(kind FaultKind, op, path string, err error) *Fault {
	return &Fault{Kind: kind, Op: op, Path: path, Err: err}
}

// Error implements error.
func (f *Fault) Error() string {
	msg := f.Op
	if f.Path != "" {
		msg += " " + f.Path
	}
	msg += ": " + f.Kind.String()
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// KindOf returns the FaultKind of the first Fault in err's chain.
// Errors without a Fault are KindUnknown; nil is KindUnknown as well.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// IsCritical reports whether err carries a critical FaultKind.
func IsCritical(err error) bool {
	return err != nil && KindOf(err).IsCritical()
}
