// Package config loads the process configuration: defaults, then an optional
// config.yaml in the routines home directory, then environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// AgentConfig holds settings for the external agent CLI.
type AgentConfig struct {
	// Bin is the agent binary invoked per dispatch.
	Bin string `yaml:"bin"`

	// WorkDir is the working directory the agent runs in. Project-level
	// agent settings and hooks are loaded from there. Empty means the
	// agent inherits the invoking directory.
	WorkDir string `yaml:"workdir"`

	// PermissionMode is passed through to the agent CLI.
	PermissionMode string `yaml:"permission_mode"`

	// TimeoutSeconds bounds one dispatch. 0 means no internal deadline;
	// the external invoker owns cancellation.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// TelemetryConfig mirrors the OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

type Config struct {
	HomeDir string `yaml:"-"`

	// RedisURL locates the key-value store session identifiers live in.
	RedisURL string `yaml:"redis_url"`

	// DatabaseURL locates the relational memory store. Empty degrades the
	// dependent routine to an empty result set rather than failing.
	DatabaseURL string `yaml:"database_url"`

	// Timezone is the fixed reference timezone routine clocks run in.
	Timezone string `yaml:"timezone"`

	LogLevel string `yaml:"log_level"`

	// PromptDir holds the prompt files some routines read
	// (first_breath.md, last_breath.md).
	PromptDir string `yaml:"prompt_dir"`

	Agent     AgentConfig     `yaml:"agent"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	loc *time.Location
}

func defaultConfig() Config {
	return Config{
		RedisURL: "redis://127.0.0.1:6379",
		Timezone: "America/Los_Angeles",
		LogLevel: "info",
		Agent: AgentConfig{
			Bin:            "claude",
			PermissionMode: "bypassPermissions",
		},
	}
}

// HomeDir resolves the routines home directory: $ROUTINES_HOME when set,
// ~/.routines otherwise.
func HomeDir() string {
	if override := os.Getenv("ROUTINES_HOME"); override != "" {
		return override
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, ".routines")
}

// Load builds the effective configuration: defaults, config.yaml if present,
// environment overrides, then normalization. The timezone is resolved here
// so a bad zone fails at startup rather than mid-run.
func Load() (Config, error) {
	cfg := defaultConfig()
	cfg.HomeDir = HomeDir()

	if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
		return cfg, fmt.Errorf("create routines home: %w", err)
	}

	configPath := filepath.Join(cfg.HomeDir, "config.yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config.yaml: %w", err)
		}
	} else if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config.yaml: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	normalize(&cfg)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return cfg, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.loc = loc
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		cfg.RedisURL = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("ROUTINES_TIMEZONE"); raw != "" {
		cfg.Timezone = raw
	}
	if raw := os.Getenv("ROUTINES_LOG_LEVEL"); raw != "" {
		cfg.LogLevel = raw
	}
	if raw := os.Getenv("ROUTINES_PROMPT_DIR"); raw != "" {
		cfg.PromptDir = raw
	}
	if raw := os.Getenv("ROUTINES_AGENT_BIN"); raw != "" {
		cfg.Agent.Bin = raw
	}
	if raw := os.Getenv("ROUTINES_WORKDIR"); raw != "" {
		cfg.Agent.WorkDir = raw
	}
	if raw := os.Getenv("ROUTINES_AGENT_TIMEOUT_SECONDS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			cfg.Agent.TimeoutSeconds = v
		}
	}
	if raw := os.Getenv("ROUTINES_TELEMETRY"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			cfg.Telemetry.Enabled = v
		}
	}
	if raw := os.Getenv("ROUTINES_TELEMETRY_EXPORTER"); raw != "" {
		cfg.Telemetry.Exporter = raw
	}
	if raw := os.Getenv("ROUTINES_TELEMETRY_ENDPOINT"); raw != "" {
		cfg.Telemetry.Endpoint = raw
	}
}

func normalize(cfg *Config) {
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://127.0.0.1:6379"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "America/Los_Angeles"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PromptDir == "" {
		cfg.PromptDir = filepath.Join(cfg.HomeDir, "prompts")
	}
	if cfg.Agent.Bin == "" {
		cfg.Agent.Bin = "claude"
	}
	if cfg.Agent.PermissionMode == "" {
		cfg.Agent.PermissionMode = "bypassPermissions"
	}
	if cfg.Agent.TimeoutSeconds < 0 {
		cfg.Agent.TimeoutSeconds = 0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "routines"
	}
}

// Location returns the loaded reference timezone. Falls back to UTC when the
// config was constructed without Load (zero value in tests).
func (c Config) Location() *time.Location {
	if c.loc != nil {
		return c.loc
	}
	return time.UTC
}

// LedgerPath returns the run-history database path inside the home dir.
func (c Config) LedgerPath() string {
	return filepath.Join(c.HomeDir, "routines.db")
}
