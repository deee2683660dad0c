// Package config provides YAML-based configuration loading for Conclave.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Conclave configuration, loaded from conclave.yaml.
type Config struct {
	Owner     string          `yaml:"owner"`
	DB        DBConfig        `yaml:"db"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Sinks     SinksConfig     `yaml:"sinks"`
	Digest    DigestConfig    `yaml:"digest"`
}

// DBConfig holds connection settings for the session store.
type DBConfig struct {
	User     string `yaml:"user"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// DashboardConfig holds settings for the dashboard HTTP server.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// SinksConfig configures outbound event delivery. Any subset may be set;
// configured sinks are fanned out to, each best-effort.
type SinksConfig struct {
	Webhook WebhookSinkConfig `yaml:"webhook"`
	Slack   SlackSinkConfig   `yaml:"slack"`
	Discord DiscordSinkConfig `yaml:"discord"`
}

// WebhookSinkConfig configures the generic HTTP webhook sink.
type WebhookSinkConfig struct {
	URL string `yaml:"url"`
}

// SlackSinkConfig configures the Slack sink.
type SlackSinkConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordSinkConfig configures the Discord sink.
type DiscordSinkConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// DigestConfig controls the pending-approval reminder digest.
type DigestConfig struct {
	// Schedule is a 5-field cron expression (minute, hour, dom, month, dow).
	Schedule string `yaml:"schedule"`
	// PendingAfterMinutes is how long an approval may sit pending before
	// it appears in the digest.
	PendingAfterMinutes int `yaml:"pending_after_minutes"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Database == "" && c.Owner != "" {
		c.DB.Database = "conclave_" + c.Owner
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = "0 9 * * *"
	}
	if c.Digest.PendingAfterMinutes == 0 {
		c.Digest.PendingAfterMinutes = 60
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Owner == "" {
		errs = append(errs, "owner is required")
	}
	if c.Sinks.Slack.BotToken != "" && c.Sinks.Slack.ChannelID == "" {
		errs = append(errs, "sinks.slack.channel_id is required when bot_token is set")
	}
	if c.Sinks.Discord.BotToken != "" && c.Sinks.Discord.ChannelID == "" {
		errs = append(errs, "sinks.discord.channel_id is required when bot_token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
