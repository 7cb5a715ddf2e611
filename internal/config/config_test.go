package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load consults so host state can't bleed in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REDIS_URL", "DATABASE_URL",
		"ROUTINES_TIMEZONE", "ROUTINES_LOG_LEVEL", "ROUTINES_PROMPT_DIR",
		"ROUTINES_AGENT_BIN", "ROUTINES_WORKDIR", "ROUTINES_AGENT_TIMEOUT_SECONDS",
		"ROUTINES_TELEMETRY", "ROUTINES_TELEMETRY_EXPORTER", "ROUTINES_TELEMETRY_ENDPOINT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROUTINES_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.RedisURL != "redis://127.0.0.1:6379" {
		t.Fatalf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.Timezone != "America/Los_Angeles" {
		t.Fatalf("Timezone = %q", cfg.Timezone)
	}
	if cfg.Agent.Bin != "claude" {
		t.Fatalf("Agent.Bin = %q", cfg.Agent.Bin)
	}
	if cfg.Agent.PermissionMode != "bypassPermissions" {
		t.Fatalf("Agent.PermissionMode = %q", cfg.Agent.PermissionMode)
	}
	if cfg.Location().String() != "America/Los_Angeles" {
		t.Fatalf("Location = %v", cfg.Location())
	}
	if want := filepath.Join(cfg.HomeDir, "prompts"); cfg.PromptDir != want {
		t.Fatalf("PromptDir = %q, want %q", cfg.PromptDir, want)
	}
	if cfg.Agent.WorkDir != "" {
		t.Fatalf("Agent.WorkDir = %q, want empty (inherit cwd)", cfg.Agent.WorkDir)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("ROUTINES_HOME", home)

	yaml := `
redis_url: redis://kv-host:6379
database_url: postgres://cortex@db:5432/cortex
log_level: debug
agent:
  bin: /usr/local/bin/claude
  workdir: /srv/pond
telemetry:
  enabled: true
  exporter: stdout
`
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisURL != "redis://kv-host:6379" {
		t.Fatalf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.DatabaseURL != "postgres://cortex@db:5432/cortex" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q", cfg.LogLevel)
	}
	if cfg.Agent.Bin != "/usr/local/bin/claude" {
		t.Fatalf("Agent.Bin = %q", cfg.Agent.Bin)
	}
	if cfg.Agent.WorkDir != "/srv/pond" {
		t.Fatalf("Agent.WorkDir = %q", cfg.Agent.WorkDir)
	}
	if !cfg.Telemetry.Enabled || cfg.Telemetry.Exporter != "stdout" {
		t.Fatalf("Telemetry = %+v", cfg.Telemetry)
	}
	// Unset yaml fields keep their defaults.
	if cfg.Agent.PermissionMode != "bypassPermissions" {
		t.Fatalf("PermissionMode = %q", cfg.Agent.PermissionMode)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("ROUTINES_HOME", home)

	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("redis_url: redis://from-file:6379\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REDIS_URL", "redis://from-env:6379")
	t.Setenv("DATABASE_URL", "postgres://env@db/cortex")
	t.Setenv("ROUTINES_AGENT_TIMEOUT_SECONDS", "90")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisURL != "redis://from-env:6379" {
		t.Fatalf("RedisURL = %q, env should win over file", cfg.RedisURL)
	}
	if cfg.DatabaseURL != "postgres://env@db/cortex" {
		t.Fatalf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Agent.TimeoutSeconds != 90 {
		t.Fatalf("TimeoutSeconds = %d", cfg.Agent.TimeoutSeconds)
	}
}

func TestLoad_BadTimezone(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROUTINES_HOME", t.TempDir())
	t.Setenv("ROUTINES_TIMEZONE", "Nowhere/Imaginary")

	_, err := Load()
	if err == nil {
		t.Fatal("bad timezone accepted")
	}
	if !strings.Contains(err.Error(), "Nowhere/Imaginary") {
		t.Fatalf("timezone error = %q", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("ROUTINES_HOME", home)
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("redis_url: [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load()
	if err == nil {
		t.Fatal("malformed yaml accepted")
	}
	if !strings.Contains(err.Error(), "parse config.yaml") {
		t.Fatalf("yaml error = %q", err)
	}
}

func TestConfig_LocationZeroValue(t *testing.T) {
	var cfg Config
	if cfg.Location() != time.UTC {
		t.Fatalf("zero-value Location = %v, want UTC", cfg.Location())
	}
}

func TestConfig_LedgerPath(t *testing.T) {
	cfg := Config{HomeDir: "/tmp/rhome"}
	if got := cfg.LedgerPath(); got != filepath.Join("/tmp/rhome", "routines.db") {
		t.Fatalf("LedgerPath = %q", got)
	}
}
