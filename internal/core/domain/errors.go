package domain

import "go.trai.ch/zerr"

var (
	// ErrStateWriteFailed is returned when a state file cannot be written.
	ErrStateWriteFailed = zerr.New("failed to write state file")

	// ErrStateReadFailed is returned when a state file cannot be read.
	ErrStateReadFailed = zerr.New("failed to read state file")

	// ErrStateDeleteFailed is returned when a state file cannot be deleted.
	ErrStateDeleteFailed = zerr.New("failed to delete state file")

	// ErrStateEncodeFailed is returned when a state blob cannot be encoded.
	ErrStateEncodeFailed = zerr.New("failed to encode state blob")

	// ErrStateDecodeFailed is returned when the bytes of a state file cannot be decoded.
	ErrStateDecodeFailed = zerr.New("failed to decode state file")

	// ErrStateBadMagic is returned when a file does not start with the state file marker.
	ErrStateBadMagic = zerr.New("not a state file")

	// ErrStateFormatUnsupported is returned when the envelope format version is unknown.
	ErrStateFormatUnsupported = zerr.New("unsupported state file format")

	// ErrStateChecksumMismatch is returned when the payload checksum does not match.
	ErrStateChecksumMismatch = zerr.New("state file checksum mismatch")

	// ErrStateMissingField is returned when a required envelope field is absent.
	ErrStateMissingField = zerr.New("state file is missing a required field")

	// ErrUnknownStateKind is returned when a state file carries a kind that is not registered.
	ErrUnknownStateKind = zerr.New("unknown state kind")

	// ErrDuplicateStateKind is returned when a kind is registered twice.
	ErrDuplicateStateKind = zerr.New("state kind already registered")

	// ErrEntryOutOfRange is raised when a registration entry index is outside the cache.
	ErrEntryOutOfRange = zerr.New("registration entry index out of range")

	// ErrEmptyRegistrationPath is returned when a registration pair has an empty path.
	ErrEmptyRegistrationPath = zerr.New("registration paths must not be empty")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidLogFormat is returned when the configured log format is unknown.
	ErrInvalidLogFormat = zerr.New("invalid log format, expected 'pretty' or 'json'")

	// ErrNoPathsSpecified is returned when a command needs at least one path.
	ErrNoPathsSpecified = zerr.New("no paths specified")

	// ErrWatcherFailed is returned when the file watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")
)
