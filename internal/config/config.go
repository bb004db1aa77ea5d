// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and RAID_* env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoragePath is the SQLite database file backing raids, jobs, and
	// counters. Empty or ":memory:" selects the in-memory stores.
	StoragePath string `koanf:"storage_path"`

	// TurnWindowSeconds is how long the turn holder has before being
	// force-skipped.
	TurnWindowSeconds int `koanf:"turn_window_seconds"`

	// SweepIntervalSeconds is how often the expiration backstop scans
	// active raids.
	SweepIntervalSeconds int `koanf:"sweep_interval_seconds"`

	// SchedulerPollMS is the durable-job poll cadence in milliseconds.
	SchedulerPollMS int `koanf:"scheduler_poll_ms"`

	// NoticeQueueSize bounds the in-memory notice queue.
	NoticeQueueSize int `koanf:"notice_queue_size"`

	// NoticeWorkers sets the notice dispatcher pool size.
	NoticeWorkers int `koanf:"notice_workers"`

	// WebhookURL, when set, posts notices to an external endpoint instead
	// of the log channel.
	WebhookURL string `koanf:"webhook_url"`

	// MaxListLimit caps GET /raids?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// ActivityTTLMinutes is the window for per-character turn counters.
	ActivityTTLMinutes int `koanf:"activity_ttl_minutes"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use and currently
// unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		StoragePath:          "raid.db",
		TurnWindowSeconds:    60,
		SweepIntervalSeconds: 30,
		SchedulerPollMS:      500,
		NoticeQueueSize:      1024,
		NoticeWorkers:        2,
		MaxListLimit:         100,
		ActivityTTLMinutes:   60,
	}
}

// InMemory reports whether the configured storage selects the in-memory
// stores instead of SQLite.
func (c *Config) InMemory() bool {
	return c.StoragePath == "" || c.StoragePath == ":memory:"
}
