package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Minimal(t *testing.T) {
	cfg, err := Parse([]byte("owner: alice\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Owner != "alice" {
		t.Errorf("Owner = %q, want alice", cfg.Owner)
	}
	if cfg.DB.User != "root" {
		t.Errorf("DB.User = %q, want root", cfg.DB.User)
	}
	if cfg.DB.Host != "127.0.0.1" {
		t.Errorf("DB.Host = %q, want 127.0.0.1", cfg.DB.Host)
	}
	if cfg.DB.Port != 3306 {
		t.Errorf("DB.Port = %d, want 3306", cfg.DB.Port)
	}
	if cfg.DB.Database != "conclave_alice" {
		t.Errorf("DB.Database = %q, want conclave_alice", cfg.DB.Database)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Dashboard.Port = %d, want 8080", cfg.Dashboard.Port)
	}
	if cfg.Digest.Schedule != "0 9 * * *" {
		t.Errorf("Digest.Schedule = %q, want default daily", cfg.Digest.Schedule)
	}
	if cfg.Digest.PendingAfterMinutes != 60 {
		t.Errorf("Digest.PendingAfterMinutes = %d, want 60", cfg.Digest.PendingAfterMinutes)
	}
}

func TestParse_Full(t *testing.T) {
	data := `
owner: bob
db:
  user: conclave
  host: db.internal
  port: 3307
  database: conclave_prod
dashboard:
  port: 9090
sinks:
  webhook:
    url: https://hooks.example.com/conclave
  slack:
    bot_token: xoxb-test
    channel_id: C123
  discord:
    bot_token: discord-test
    channel_id: "456"
digest:
  schedule: "30 8 * * 1"
  pending_after_minutes: 120
`
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.DB.Host != "db.internal" || cfg.DB.Port != 3307 {
		t.Errorf("DB = %+v, want db.internal:3307", cfg.DB)
	}
	if cfg.DB.Database != "conclave_prod" {
		t.Errorf("DB.Database = %q, want conclave_prod (explicit value must win)", cfg.DB.Database)
	}
	if cfg.Sinks.Webhook.URL != "https://hooks.example.com/conclave" {
		t.Errorf("Webhook.URL = %q", cfg.Sinks.Webhook.URL)
	}
	if cfg.Sinks.Slack.ChannelID != "C123" {
		t.Errorf("Slack.ChannelID = %q, want C123", cfg.Sinks.Slack.ChannelID)
	}
	if cfg.Digest.Schedule != "30 8 * * 1" {
		t.Errorf("Digest.Schedule = %q", cfg.Digest.Schedule)
	}
}

func TestParse_MissingOwner(t *testing.T) {
	_, err := Parse([]byte("db:\n  host: localhost\n"))
	if err == nil {
		t.Fatal("expected error for missing owner")
	}
	if !strings.Contains(err.Error(), "owner is required") {
		t.Errorf("error = %q, want owner is required", err)
	}
}

func TestParse_SlackTokenWithoutChannel(t *testing.T) {
	data := "owner: alice\nsinks:\n  slack:\n    bot_token: xoxb-test\n"
	_, err := Parse([]byte(data))
	if err == nil {
		t.Fatal("expected error for slack token without channel")
	}
	if !strings.Contains(err.Error(), "channel_id") {
		t.Errorf("error = %q, want channel_id mention", err)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("owner: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "conclave.yaml")
	if err := os.WriteFile(path, []byte("owner: carol\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Owner != "carol" {
		t.Errorf("Owner = %q, want carol", cfg.Owner)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
