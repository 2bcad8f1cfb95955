// Package config loads the tool configuration from HCL or JSON.
package config

import (
	"grimm.is/rime/internal/brand"
)

// Config is the top-level tool configuration. Every field has a working
// default; a config file only overrides what it names.
type Config struct {
	// Snapshot is the default snapshot file consulted by sync and diff.
	Snapshot string `hcl:"snapshot,optional" json:"snapshot,omitempty"`

	// Journal is the run journal database path. Empty disables journaling.
	Journal string `hcl:"journal,optional" json:"journal,omitempty"`

	// JournalDays is the journal retention period in days.
	JournalDays int `hcl:"journal_retention_days,optional" json:"journal_retention_days,omitempty"`

	// MetricsFile is the Prometheus textfile path. Empty disables the
	// metrics write.
	MetricsFile string `hcl:"metrics_file,optional" json:"metrics_file,omitempty"`

	LogLevel string `hcl:"log_level,optional" json:"log_level,omitempty"`
	LogJSON  bool   `hcl:"log_json,optional" json:"log_json,omitempty"`

	// Fast makes sync default to the cheap enabled-state pass.
	Fast bool `hcl:"fast,optional" json:"fast,omitempty"`

	// Language overrides the locale detected from the environment.
	Language string `hcl:"language,optional" json:"language,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Snapshot:    brand.DefaultSnapshotPath(),
		Journal:     brand.DefaultJournalPath(),
		JournalDays: 90,
		LogLevel:    "info",
	}
}
