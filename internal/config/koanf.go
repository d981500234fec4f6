// Rankwatch - CTF Leaderboard Monitoring and Notification
// Copyright 2026 Caleb H. (calebh42)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/calebh42/rankwatch

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/rankwatch/config.yaml",
	"/etc/rankwatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all sensible default values. These are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			IntervalMs: 2000,
			ServerURL:  "https://recruit.cnss.io",
			Contest:    494,
			Categories: []string{"web", "re", "pwn", "crypto", "misc", "blockchain", "sa"},
			Tasks:      []int64{},
			Token:      "",
			TopN:       10,
		},
		Server: ServerConfig{
			Addr:         "0.0.0.0",
			Port:         8080,
			AdminSecret:  "",
			ResourcePath: "./web",
			Timeout:      30 * time.Second,
		},
		Notification: NotificationConfig{
			SMTP: SMTPConfig{
				Host:       "",
				Port:       465,
				UseTLS:     true,
				Username:   "",
				Password:   "",
				From:       "",
				FromName:   "Rankwatch",
				Recipients: []string{},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. The returned path is the config file
// that was loaded, or empty if none was found; the admin API persists
// accepted mutations back to it.
func LoadWithKoanf() (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load defaults: %w", err)
	}

	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Transform environment variable names to koanf paths:
	// MONITOR_TOKEN -> monitor.token
	// SMTP_RECEIVER_EMAILS -> notification.smtp.receiver_emails
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, "", fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, "", fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, configPath, nil
}

// findConfigFile searches for a config file in the default paths. Returns the
// first file found, or empty string if none exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// stringSlicePaths are comma-separated env values parsed into string slices.
var stringSlicePaths = []string{
	"monitor.types",
	"notification.smtp.receiver_emails",
}

// int64SlicePaths are comma-separated env values parsed into int64 slices.
var int64SlicePaths = []string{
	"monitor.tasks",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as plain strings, but the config
// expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range stringSlicePaths {
		strVal, ok := rawEnvString(k, path)
		if !ok {
			continue
		}
		if err := k.Set(path, splitCSV(strVal)); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}

	for _, path := range int64SlicePaths {
		strVal, ok := rawEnvString(k, path)
		if !ok {
			continue
		}
		parts := splitCSV(strVal)
		ids := make([]int64, 0, len(parts))
		for _, p := range parts {
			id, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer %q in %s: %w", p, path, err)
			}
			ids = append(ids, id)
		}
		if err := k.Set(path, ids); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}

	return nil
}

// rawEnvString returns the value at path if it is a non-empty string. Values
// already loaded as slices (from defaults or the YAML file) are left alone.
func rawEnvString(k *koanf.Koanf, path string) (string, bool) {
	val := k.Get(path)
	if val == nil {
		return "", false
	}
	strVal, ok := val.(string)
	if !ok || strVal == "" {
		return "", false
	}
	return strVal, true
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envTransformFunc transforms environment variable names to koanf config
// paths. Unmapped keys return empty string and are skipped, so random
// environment variables cannot pollute the config.
//
// Examples:
//   - MONITOR_SERVER -> monitor.server
//   - MONITOR_INTERVAL_IN_MS -> monitor.interval_in_ms
//   - SMTP_SENDER_EMAIL -> notification.smtp.sender_email
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Monitor mappings
		"monitor_server":         "monitor.server",
		"monitor_contest":        "monitor.contest",
		"monitor_token":          "monitor.token",
		"monitor_types":          "monitor.types",
		"monitor_tasks":          "monitor.tasks",
		"monitor_interval_in_ms": "monitor.interval_in_ms",
		"monitor_top_n":          "monitor.top_n",

		// Server mappings
		"http_addr":      "server.addr",
		"http_port":      "server.port",
		"http_timeout":   "server.timeout",
		"admin_password": "server.admin_password",
		"resource_path":  "server.resource_path",

		// SMTP mappings
		"smtp_server":          "notification.smtp.server",
		"smtp_port":            "notification.smtp.port",
		"smtp_use_tls":         "notification.smtp.use_tls",
		"smtp_username":        "notification.smtp.username",
		"smtp_password":        "notification.smtp.password",
		"smtp_sender_email":    "notification.smtp.sender_email",
		"smtp_sender_name":     "notification.smtp.sender_name",
		"smtp_receiver_emails": "notification.smtp.receiver_emails",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}

// SaveToFile serializes the config to YAML and writes it atomically to path.
// Used to persist admin mutations so they survive a restart.
func SaveToFile(cfg *Config, path string) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to serialize configuration: %w", err)
	}

	out, err := yaml.Parser().Marshal(k.Raw())
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	// Write-then-rename so a crash mid-write cannot truncate the live file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// EnsureParentDir creates the directory containing path if it is missing.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o750)
}
