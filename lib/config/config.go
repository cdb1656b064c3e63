// Copyright 2026 The Hearth Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Hearth components.
//
// Configuration is loaded from a single YAML file specified by:
//   - HEARTH_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// The only expansion performed is ${VAR} / ${VAR:-default} in paths
// for portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hearth-im/hearth/lib/ref"
)

// Config is the configuration for a Hearth sync process.
type Config struct {
	// HomeserverURL is the base URL of the Matrix homeserver
	// (e.g., "https://matrix.example.org").
	HomeserverURL string `yaml:"homeserver_url"`

	// UserID is the fully-qualified Matrix user ID of the account
	// (e.g., "@alice:example.org").
	UserID string `yaml:"user_id"`

	// TokenFile is the path to a file containing the Matrix access
	// token. Read into locked memory at startup; never placed in the
	// config file itself.
	TokenFile string `yaml:"token_file"`

	// CachePath is where the session cache (sync position, room
	// summaries) is persisted between runs.
	CachePath string `yaml:"cache_path"`

	// LongPollTimeout is the server-side hold time for incremental
	// /sync long polls, as a Go duration string. Default: "30s".
	LongPollTimeout string `yaml:"long_poll_timeout"`

	// LogLevel sets the slog level: "debug", "info", "warn", "error".
	// Default: "info".
	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration. These defaults exist
// primarily to ensure all fields have sensible zero-values, not as a
// fallback — the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "hearth")

	return &Config{
		CachePath:       filepath.Join(defaultRoot, "session.cache"),
		LongPollTimeout: "30s",
		LogLevel:        "info",
	}
}

// Load loads configuration from the HEARTH_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults — if HEARTH_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("HEARTH_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("HEARTH_CONFIG environment variable not set; " +
			"set it to the path of your hearth.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.TokenFile = expandVars(c.TokenFile, vars)
	c.CachePath = expandVars(c.CachePath, vars)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.HomeserverURL == "" {
		errs = append(errs, fmt.Errorf("homeserver_url is required"))
	}
	if c.UserID == "" {
		errs = append(errs, fmt.Errorf("user_id is required"))
	} else if _, err := ref.ParseUserID(c.UserID); err != nil {
		errs = append(errs, fmt.Errorf("user_id: %w", err))
	}
	if c.TokenFile == "" {
		errs = append(errs, fmt.Errorf("token_file is required"))
	}
	if c.CachePath == "" {
		errs = append(errs, fmt.Errorf("cache_path is required"))
	}
	if _, err := time.ParseDuration(c.LongPollTimeout); err != nil {
		errs = append(errs, fmt.Errorf("long_poll_timeout: %w", err))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level must be one of: debug, info, warn, error"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// MatrixUserID returns the configured user ID as a validated ref type.
// Call Validate first; this panics on a malformed user ID.
func (c *Config) MatrixUserID() ref.UserID {
	return ref.MustParseUserID(c.UserID)
}

// LongPoll returns the parsed long-poll timeout. Call Validate first;
// this panics on a malformed duration.
func (c *Config) LongPoll() time.Duration {
	d, err := time.ParseDuration(c.LongPollTimeout)
	if err != nil {
		panic(fmt.Sprintf("config: invalid long_poll_timeout %q: %v", c.LongPollTimeout, err))
	}
	return d
}
