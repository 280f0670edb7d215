package domain

import "time"

// LogFormat selects how log records are rendered.
type LogFormat string

const (
	// LogFormatPretty renders human-readable, colored records.
	LogFormatPretty LogFormat = "pretty"
	// LogFormatJSON renders one JSON object per record.
	LogFormatJSON LogFormat = "json"
)

// Settings is the resolved stash configuration.
type Settings struct {
	StateDir      string
	LogFormat     LogFormat
	NodeID        int32
	SubmissionID  int32
	WatchDebounce time.Duration
}

// DefaultSettings returns the settings used when no configuration file exists.
func DefaultSettings() Settings {
	return Settings{
		StateDir:      DefaultStatePath(),
		LogFormat:     LogFormatPretty,
		NodeID:        1,
		SubmissionID:  InvalidSubmissionID,
		WatchDebounce: DefaultWatchDebounce,
	}
}
