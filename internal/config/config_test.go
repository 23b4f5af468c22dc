// Tandem - Relationship Coaching Personalization & Smart Scheduling
// Copyright 2026 Tandem Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tandemlabs/tandem

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Server.Port != 8480 {
		t.Errorf("server.port = %d, want 8480", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8480" {
		t.Errorf("Addr() = %s, want 0.0.0.0:8480", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
	if cfg.Profile.Alpha != 0.3 {
		t.Errorf("profile.alpha = %f, want 0.3", cfg.Profile.Alpha)
	}
	if cfg.Sweep.Interval != 5*time.Minute {
		t.Errorf("sweep.interval = %s, want 5m", cfg.Sweep.Interval)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9001
  host: 127.0.0.1
profile:
  alpha: 0.5
recommend:
  cooldown: 6h
store:
  path: ""
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}

	if cfg.Server.Port != 9001 || cfg.Server.Host != "127.0.0.1" {
		t.Errorf("server = %s, want 127.0.0.1:9001", cfg.Server.Addr())
	}
	if cfg.Profile.Alpha != 0.5 {
		t.Errorf("profile.alpha = %f, want 0.5", cfg.Profile.Alpha)
	}
	if cfg.Recommend.Cooldown != 6*time.Hour {
		t.Errorf("recommend.cooldown = %s, want 6h", cfg.Recommend.Cooldown)
	}
	if cfg.Store.Path != "" {
		t.Errorf("store.path = %q, want empty (in-memory)", cfg.Store.Path)
	}
	// Untouched sections keep their defaults.
	if cfg.Schedule.CategoryGap != 24*time.Hour {
		t.Errorf("schedule.category_gap = %s, want default 24h", cfg.Schedule.CategoryGap)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9001\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TANDEM_SERVER_PORT", "9002")
	t.Setenv("TANDEM_LOGGING_LEVEL", "debug")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Server.Port != 9002 {
		t.Errorf("server.port = %d, want env override 9002", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoad_InvalidRejected(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad port", yaml: "server:\n  port: 0\n"},
		{name: "bad alpha", yaml: "profile:\n  alpha: 2.0\n"},
		{name: "bad cooldown", yaml: "recommend:\n  cooldown: -1h\n"},
		{name: "empty catalog path", yaml: "catalog:\n  path: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := load(path); err == nil {
				t.Error("load() expected validation error")
			}
		})
	}
}

func TestFindConfigFile_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %s, want %s", got, path)
	}
}
