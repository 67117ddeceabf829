package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Printer  PrinterConfig  `yaml:"printer"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type PrinterConfig struct {
	Name              string        `yaml:"name"`
	Kind              string        `yaml:"kind"` // tcp or serial
	Address           string        `yaml:"address"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
	BlackMarkSensing  bool          `yaml:"black_mark_sensing"`
	ExtendedBitmap    bool          `yaml:"extended_bitmap"`
}

type PipelineConfig struct {
	SettleDelay time.Duration `yaml:"settle_delay"`
	Supersample int           `yaml:"supersample"`
	SpoolDir    string        `yaml:"spool_dir"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/spool.db",
		},
		Printer: PrinterConfig{
			Name:              "label-printer",
			Kind:              "tcp",
			Address:           "127.0.0.1:9100",
			ConnectionTimeout: 10 * time.Second,
			BlackMarkSensing:  true,
			ExtendedBitmap:    true,
		},
		Pipeline: PipelineConfig{
			SettleDelay: 500 * time.Millisecond,
			Supersample: 2,
			SpoolDir:    os.TempDir(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()

	if v := os.Getenv("SPOOL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SPOOL_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("SPOOL_PRINTER_ADDRESS"); v != "" {
		cfg.Printer.Address = v
	}

	if v := os.Getenv("SPOOL_PRINTER_KIND"); v != "" {
		cfg.Printer.Kind = v
	}

	if v := os.Getenv("SPOOL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Printer.Kind != "tcp" && c.Printer.Kind != "serial" {
		return fmt.Errorf("invalid printer kind: %s (valid: tcp, serial)", c.Printer.Kind)
	}

	if c.Printer.Address == "" {
		return fmt.Errorf("printer address is required")
	}

	if c.Printer.ConnectionTimeout < 0 {
		return fmt.Errorf("connection timeout must be non-negative")
	}

	if c.Pipeline.SettleDelay < 0 {
		return fmt.Errorf("settle delay must be non-negative")
	}

	if c.Pipeline.Supersample < 1 || c.Pipeline.Supersample > 4 {
		return fmt.Errorf("supersample factor must be between 1 and 4, got %d", c.Pipeline.Supersample)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":  true,
		"text":  true,
		"plain": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text, plain)", c.Logging.Format)
	}

	return nil
}
