// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the govern configuration file.
//
// Configuration is explicit: Load returns a Config value and callers
// pass it to whatever they construct. There is no package-level
// singleton, so tests can load independent configs in parallel.
//
// Precedence, lowest to highest: built-in defaults, the YAML file,
// GOVERN_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the top-level govern configuration.
type Config struct {
	// Storage configures the audit trail store.
	Storage StorageConfig `yaml:"storage"`

	// Policy configures the risk rule set source.
	Policy PolicyConfig `yaml:"policy"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Telemetry configures traces and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig locates the audit trail store.
type StorageConfig struct {
	// Path is the BadgerDB directory for the audit trail.
	Path string `yaml:"path"`

	// SyncWrites forces synchronous commits. Leave true: the audit
	// durability contract assumes it.
	SyncWrites bool `yaml:"sync_writes"`
}

// PolicyConfig selects the risk rule set.
type PolicyConfig struct {
	// RulesFile overrides the embedded default rule set.
	// Empty means use the rules baked into the binary.
	RulesFile string `yaml:"rules_file"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Dir enables file logging when non-empty. Supports ~ expansion.
	Dir string `yaml:"dir"`
}

// TelemetryConfig controls traces and metrics.
type TelemetryConfig struct {
	// TraceExporter is one of otlp, stdout, none.
	TraceExporter string `yaml:"trace_exporter"`

	// MetricExporter is one of prometheus, stdout, none.
	MetricExporter string `yaml:"metric_exporter"`

	// OTLPEndpoint is the OTLP receiver for traces.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// PrometheusPort serves /metrics when the prometheus exporter is
	// selected.
	PrometheusPort int `yaml:"prometheus_port"`

	// SampleRate is the trace sampling fraction in [0,1].
	SampleRate float64 `yaml:"sample_rate"`
}

// Default returns the built-in configuration.
//
// The audit store defaults to ~/.govern/audit; telemetry is off so a
// bare CLI run emits nothing but its own output.
func Default() Config {
	storePath := "audit"
	if home, err := os.UserHomeDir(); err == nil {
		storePath = filepath.Join(home, ".govern", "audit")
	}
	return Config{
		Storage: StorageConfig{
			Path:       storePath,
			SyncWrites: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
			OTLPEndpoint:   "localhost:4317",
			PrometheusPort: 9090,
			SampleRate:     1.0,
		},
	}
}

// DefaultPath returns the conventional config file location,
// ~/.govern/govern.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "govern.yaml"
	}
	return filepath.Join(home, ".govern", "govern.yaml")
}

// Load reads a config file and applies environment overrides.
//
// # Inputs
//
//   - path: Config file path. Empty means DefaultPath(), and a missing
//     file at the default location is not an error: defaults apply. An
//     explicitly named file that does not exist is an error.
//
// # Outputs
//
//   - Config: The merged configuration.
//   - error: Non-nil on unreadable or malformed YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Unmarshal over the defaults so absent keys keep them.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file at the default location is fine.
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays GOVERN_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("GOVERN_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("GOVERN_RULES_FILE"); v != "" {
		cfg.Policy.RulesFile = v
	}
	if v := os.Getenv("GOVERN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GOVERN_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
	if v := os.Getenv("GOVERN_TRACE_EXPORTER"); v != "" {
		cfg.Telemetry.TraceExporter = v
	}
	if v := os.Getenv("GOVERN_METRIC_EXPORTER"); v != "" {
		cfg.Telemetry.MetricExporter = v
	}
	if v := os.Getenv("GOVERN_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := os.Getenv("GOVERN_PROMETHEUS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Telemetry.PrometheusPort = port
		}
	}
}

// Validate checks the merged configuration.
func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("config: storage.path must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown logging.level %q", c.Logging.Level)
	}
	switch c.Telemetry.TraceExporter {
	case "otlp", "stdout", "none":
	default:
		return fmt.Errorf("config: unknown telemetry.trace_exporter %q", c.Telemetry.TraceExporter)
	}
	switch c.Telemetry.MetricExporter {
	case "prometheus", "stdout", "none":
	default:
		return fmt.Errorf("config: unknown telemetry.metric_exporter %q", c.Telemetry.MetricExporter)
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		return fmt.Errorf("config: telemetry.sample_rate %v out of [0,1]", c.Telemetry.SampleRate)
	}
	return nil
}
