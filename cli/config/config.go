// Package config handles grana.yaml config file loading for grana run.
package config

import (
	"fmt"
	"time"
)

// Config represents a grana.yaml configuration file. All values are
// optional and act as defaults for grana CLI flags. CLI flags always
// override config values.
type Config struct {
	Strategy       string       `yaml:"strategy"`
	Display        string       `yaml:"display"`
	StrictOutcomes bool         `yaml:"strict_outcomes"`
	Interactive    bool         `yaml:"interactive"`
	Context        map[string]interface{} `yaml:"context"`
	Report         ReportConfig `yaml:"report"`
	Webhook        WebhookConfig `yaml:"webhook"`
	Redis          RedisConfig  `yaml:"redis"`
}

// ReportConfig holds run-report defaults from the config file.
type ReportConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// WebhookConfig holds webhook-display defaults from the config file.
type WebhookConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// RedisConfig holds redis-display defaults from the config file.
type RedisConfig struct {
	URL     string `yaml:"url"`
	Channel string `yaml:"channel,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
