package config

// Stashfile represents the structure of the stash.yaml configuration file.
type Stashfile struct {
	Version      string    `yaml:"version"`
	StateDir     string    `yaml:"state_dir"`
	LogFormat    string    `yaml:"log_format"`
	NodeID       *int32    `yaml:"node_id"`
	SubmissionID *int32    `yaml:"submission_id"`
	Watch        *WatchDTO `yaml:"watch"`
}

// WatchDTO represents the watch section of the configuration.
type WatchDTO struct {
	Debounce string `yaml:"debounce"`
}
