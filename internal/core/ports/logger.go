package ports

import "go.trai.ch/stash/internal/core/domain"

// Logger defines the interface for logging.
//
//go:generate mockgen -source=logger.go -destination=mocks/mock_logger.go -package=mocks
type Logger interface {
	Info(msg string)
	Warn(msg string)
	Error(err error)

	// LogMessage emits an informational coded diagnostic.
	LogMessage(code domain.DiagnosticCode, args ...any)
	// LogWarning emits a coded diagnostic that merits operator attention.
	LogWarning(code domain.DiagnosticCode, args ...any)

	// With returns a Logger that attributes every record to the given build event context.
	With(bec domain.BuildEventContext) Logger
}
