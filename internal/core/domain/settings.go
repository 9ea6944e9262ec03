package domain

import "time"

// Settings are the tool-level knobs loaded from bake.yaml and overridden
// by command-line flags.
type Settings struct {
	// Workers caps the number of concurrent compiles. Zero means one
	// worker per CPU.
	Workers int

	// CheckpointInterval is how often the snapshot store is flushed to
	// disk during long builds. Zero disables intermediate checkpoints;
	// the store always flushes once at the end of an invocation.
	CheckpointInterval time.Duration

	// Checksum forces content checksums during change detection even for
	// rules that did not ask for them.
	Checksum bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultSettings returns the values used when no config file is present.
func DefaultSettings() Settings {
	return Settings{
		Workers:            0,
		CheckpointInterval: 5 * time.Minute,
		LogLevel:           "info",
	}
}
