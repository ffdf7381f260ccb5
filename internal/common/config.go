// -----------------------------------------------------------------------
// Application Config - TOML-backed configuration with env and CLI overrides
// Priority: defaults -> config file(s) -> STACKSCAN_* env -> CLI flags
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Scan        ScanConfig    `toml:"scan"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
}

// ScanConfig controls detection runs
type ScanConfig struct {
	RulesPath       string `toml:"rules_path"`        // Detection rule document; empty uses the embedded defaults
	MaxContentBytes int64  `toml:"max_content_bytes"` // Largest file content loaded into memory for matching
	RuleConcurrency int    `toml:"rule_concurrency"`  // Concurrent rule evaluations per file
	StringMinLength int    `toml:"string_min_length"` // Minimum printable-run length for binary string extraction
	Schedule        string `toml:"schedule"`          // Cron schedule for watch mode (empty = single run)
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Scan: ScanConfig{
			MaxContentBytes: 32 * 1024 * 1024,
			RuleConcurrency: 8,
			StringMinLength: 4,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files
// override earlier files, env overrides all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STACKSCAN_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if rulesPath := os.Getenv("STACKSCAN_RULES_PATH"); rulesPath != "" {
		config.Scan.RulesPath = rulesPath
	}
	if maxContent := os.Getenv("STACKSCAN_MAX_CONTENT_BYTES"); maxContent != "" {
		if v, err := strconv.ParseInt(maxContent, 10, 64); err == nil {
			config.Scan.MaxContentBytes = v
		}
	}
	if concurrency := os.Getenv("STACKSCAN_RULE_CONCURRENCY"); concurrency != "" {
		if v, err := strconv.Atoi(concurrency); err == nil {
			config.Scan.RuleConcurrency = v
		}
	}
	if schedule := os.Getenv("STACKSCAN_SCAN_SCHEDULE"); schedule != "" {
		config.Scan.Schedule = schedule
	}

	if badgerPath := os.Getenv("STACKSCAN_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("STACKSCAN_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("STACKSCAN_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("STACKSCAN_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, rulesPath string, schedule string) {
	if rulesPath != "" {
		config.Scan.RulesPath = rulesPath
	}
	if schedule != "" {
		config.Scan.Schedule = schedule
	}
}
