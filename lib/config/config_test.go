// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.LongPollTimeout != "30s" {
		t.Errorf("expected long_poll_timeout=30s, got %s", cfg.LongPollTimeout)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected log_level=info, got %s", cfg.LogLevel)
	}
	if cfg.CachePath == "" {
		t.Error("expected a default cache_path")
	}
}

func TestLoad_RequiresHearthConfig(t *testing.T) {
	// Save and restore HEARTH_CONFIG.
	origConfig := os.Getenv("HEARTH_CONFIG")
	defer os.Setenv("HEARTH_CONFIG", origConfig)

	// Unset HEARTH_CONFIG - Load() should fail.
	os.Unsetenv("HEARTH_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when HEARTH_CONFIG not set, got nil")
	}
	if !strings.Contains(err.Error(), "HEARTH_CONFIG environment variable not set") {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestLoadFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hearth.yaml")
	configContent := `
homeserver_url: https://matrix.example.org
user_id: "@alice:example.org"
token_file: /etc/hearth/token
cache_path: /var/lib/hearth/session.cache
long_poll_timeout: 45s
log_level: debug
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.HomeserverURL != "https://matrix.example.org" {
		t.Errorf("homeserver_url = %q", cfg.HomeserverURL)
	}
	if cfg.MatrixUserID().String() != "@alice:example.org" {
		t.Errorf("user_id = %q", cfg.MatrixUserID())
	}
	if cfg.LongPoll() != 45*time.Second {
		t.Errorf("long poll = %v, want 45s", cfg.LongPoll())
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
}

func TestLoadFile_ExpandsVariables(t *testing.T) {
	t.Setenv("HOME", "/home/test")

	configPath := filepath.Join(t.TempDir(), "hearth.yaml")
	configContent := `
homeserver_url: https://matrix.example.org
user_id: "@alice:example.org"
token_file: ${HOME}/.config/hearth/token
cache_path: ${HEARTH_CACHE:-/tmp/hearth.cache}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.TokenFile != "/home/test/.config/hearth/token" {
		t.Errorf("token_file = %q, want ${HOME} expanded", cfg.TokenFile)
	}
	if cfg.CachePath != "/tmp/hearth.cache" {
		t.Errorf("cache_path = %q, want default expansion", cfg.CachePath)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantPart string
	}{
		{
			name:     "missing homeserver",
			mutate:   func(c *Config) { c.HomeserverURL = "" },
			wantPart: "homeserver_url is required",
		},
		{
			name:     "missing user id",
			mutate:   func(c *Config) { c.UserID = "" },
			wantPart: "user_id is required",
		},
		{
			name:     "malformed user id",
			mutate:   func(c *Config) { c.UserID = "alice" },
			wantPart: "user_id",
		},
		{
			name:     "missing token file",
			mutate:   func(c *Config) { c.TokenFile = "" },
			wantPart: "token_file is required",
		},
		{
			name:     "bad long poll timeout",
			mutate:   func(c *Config) { c.LongPollTimeout = "thirty" },
			wantPart: "long_poll_timeout",
		},
		{
			name:     "bad log level",
			mutate:   func(c *Config) { c.LogLevel = "verbose" },
			wantPart: "log_level",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			cfg.HomeserverURL = "https://matrix.example.org"
			cfg.UserID = "@alice:example.org"
			cfg.TokenFile = "/etc/hearth/token"

			test.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate succeeded, want error")
			}
			if !strings.Contains(err.Error(), test.wantPart) {
				t.Errorf("error %q does not mention %q", err.Error(), test.wantPart)
			}
		})
	}
}
