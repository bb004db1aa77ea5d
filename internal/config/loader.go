package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. file (YAML) if RAID_CONFIG is set
//  3. env (prefix RAID_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New(ctx)

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("RAID_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: RAID_ADDR, RAID_TURN_WINDOW_SECONDS, ...
	// Map env keys like RAID_TURN_WINDOW_SECONDS -> turn_window_seconds
	// (flat keys). Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("RAID_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "raid_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects values the engine cannot run with.
func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.TurnWindowSeconds <= 0 {
		return fmt.Errorf("%w: turn_window_seconds must be positive", ErrInvalidConfig)
	}
	if c.SweepIntervalSeconds <= 0 {
		return fmt.Errorf("%w: sweep_interval_seconds must be positive", ErrInvalidConfig)
	}
	if c.SchedulerPollMS <= 0 {
		return fmt.Errorf("%w: scheduler_poll_ms must be positive", ErrInvalidConfig)
	}
	if c.NoticeQueueSize <= 0 {
		return fmt.Errorf("%w: notice_queue_size must be positive", ErrInvalidConfig)
	}
	if c.NoticeWorkers <= 0 {
		return fmt.Errorf("%w: notice_workers must be positive", ErrInvalidConfig)
	}
	if c.MaxListLimit <= 0 {
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	}
	if c.ActivityTTLMinutes <= 0 {
		return fmt.Errorf("%w: activity_ttl_minutes must be positive", ErrInvalidConfig)
	}
	return nil
}
