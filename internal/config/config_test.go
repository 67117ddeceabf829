package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.SettleDelay != 500*time.Millisecond {
		t.Errorf("default settle delay = %s, want 500ms", cfg.Pipeline.SettleDelay)
	}
	if cfg.Pipeline.Supersample != 2 {
		t.Errorf("default supersample = %d, want 2", cfg.Pipeline.Supersample)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
printer:
  name: dock-printer
  kind: serial
  address: /dev/ttyUSB0
pipeline:
  settle_delay: 250ms
  supersample: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Printer.Kind != "serial" || cfg.Printer.Address != "/dev/ttyUSB0" {
		t.Errorf("printer = %s %s, want serial /dev/ttyUSB0", cfg.Printer.Kind, cfg.Printer.Address)
	}
	if cfg.Pipeline.SettleDelay != 250*time.Millisecond {
		t.Errorf("settle delay = %s, want 250ms", cfg.Pipeline.SettleDelay)
	}
	// Unset keys keep their defaults.
	if cfg.Database.Path != "./data/spool.db" {
		t.Errorf("database path = %s, want default", cfg.Database.Path)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [not a map"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, false},
		{"bad printer kind", func(c *Config) { c.Printer.Kind = "bluetooth" }, false},
		{"empty printer address", func(c *Config) { c.Printer.Address = "" }, false},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, false},
		{"negative settle delay", func(c *Config) { c.Pipeline.SettleDelay = -1 }, false},
		{"supersample too high", func(c *Config) { c.Pipeline.Supersample = 5 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SPOOL_PORT", "7001")
	t.Setenv("SPOOL_PRINTER_ADDRESS", "10.0.0.5:9100")
	t.Setenv("SPOOL_LOG_LEVEL", "debug")

	cfg := LoadFromEnv()
	if cfg.Server.Port != 7001 {
		t.Errorf("port = %d, want 7001", cfg.Server.Port)
	}
	if cfg.Printer.Address != "10.0.0.5:9100" {
		t.Errorf("printer address = %s", cfg.Printer.Address)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %s, want debug", cfg.Logging.Level)
	}
}
