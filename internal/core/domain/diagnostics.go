package domain

import (
	"fmt"
	"strings"
)

// StateKind is the tag identifying the shape of a persisted state blob.
type StateKind string

// DiagnosticCode identifies a coded log message.
type DiagnosticCode string

const (
	// CodeStateWriteFailed is logged when a state file could not be written.
	CodeStateWriteFailed DiagnosticCode = "STASH1001"
	// CodeStateDeleteFailed is logged when a state file could not be deleted.
	CodeStateDeleteFailed DiagnosticCode = "STASH1002"
	// CodeStateUnreadable is logged when a state file could not be decoded.
	CodeStateUnreadable DiagnosticCode = "STASH1003"
	// CodeStateSchemaDrift is logged when a state file was written by another schema version.
	CodeStateSchemaDrift DiagnosticCode = "STASH1004"
	// CodeStateKindMismatch is logged when a state file holds another kind than requested.
	CodeStateKindMismatch DiagnosticCode = "STASH1005"
	// CodeStateTypeMismatch is logged when a decoded blob is not of the requested type.
	CodeStateTypeMismatch DiagnosticCode = "STASH1006"
	// CodeInputChanged is logged when a tracked input changed since its snapshot.
	CodeInputChanged DiagnosticCode = "STASH2001"
)

var diagnosticFormats = map[DiagnosticCode]string{
	CodeStateWriteFailed:  "Could not write state file %q: %s",
	CodeStateDeleteFailed: "Could not delete state file %q: %s",
	CodeStateUnreadable:   "Could not read state file %q, it will be rebuilt: %s",
	CodeStateSchemaDrift:  "State file %q was written with schema version %d, expected %d; it will be rebuilt",
	CodeStateKindMismatch: "State file %q holds %q state, expected %q; it will be rebuilt",
	CodeStateTypeMismatch: "State file %q decoded to %s, expected %s; it will be rebuilt",
	CodeInputChanged:      "Input %q changed since it was tracked",
}

// FormatDiagnostic renders the message for code with args.
// Unknown codes render the code followed by the raw arguments.
func FormatDiagnostic(code DiagnosticCode, args ...any) string {
	format, ok := diagnosticFormats[code]
	if !ok {
		return string(code) + ": " + strings.TrimSuffix(fmt.Sprintln(args...), "\n")
	}
	return fmt.Sprintf(format, args...)
}
