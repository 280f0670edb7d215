package domain

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// CacheOutcome describes what a state cache operation ended with.
type CacheOutcome string

const (
	// OutcomeHit means usable state was loaded.
	OutcomeHit CacheOutcome = "hit"
	// OutcomeMiss means no usable state was found.
	OutcomeMiss CacheOutcome = "miss"
	// OutcomeStored means state was written.
	OutcomeStored CacheOutcome = "stored"
	// OutcomeDeleted means state was removed or was already absent.
	OutcomeDeleted CacheOutcome = "deleted"
	// OutcomeSkipped means the operation was a no-op or degraded after an ordinary failure.
	OutcomeSkipped CacheOutcome = "skipped"
	// OutcomeFailed means a critical failure propagated.
	OutcomeFailed CacheOutcome = "failed"
)
