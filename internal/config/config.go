// Package config loads engine configuration from .coderef/config.json and
// the scanner manifest from .coderef/scanners.toml.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete coderef configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Drift   DriftConfig   `json:"drift" mapstructure:"drift"`
	Impact  ImpactConfig  `json:"impact" mapstructure:"impact"`
	Storage StorageConfig `json:"storage" mapstructure:"storage"`
	Scan    ScanConfig    `json:"scan" mapstructure:"scan"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// DriftConfig contains drift detection tuning
type DriftConfig struct {
	RenameThreshold  float64 `json:"renameThreshold" mapstructure:"renameThreshold"`
	AmbiguityEpsilon float64 `json:"ambiguityEpsilon" mapstructure:"ambiguityEpsilon"`
}

// ImpactConfig contains impact traversal settings
type ImpactConfig struct {
	MaxDepth int `json:"maxDepth" mapstructure:"maxDepth"`
}

// StorageConfig contains snapshot store settings
type StorageConfig struct {
	KeepSnapshots int `json:"keepSnapshots" mapstructure:"keepSnapshots"`
}

// ScanConfig contains scan ingestion settings
type ScanConfig struct {
	DefaultInput string   `json:"defaultInput" mapstructure:"defaultInput"`
	Ignore       []string `json:"ignore" mapstructure:"ignore"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Drift: DriftConfig{
			RenameThreshold:  0.7,
			AmbiguityEpsilon: 0.01,
		},
		Impact: ImpactConfig{
			MaxDepth: 3,
		},
		Storage: StorageConfig{
			KeepSnapshots: 10,
		},
		Scan: ScanConfig{
			DefaultInput: "scan.json",
			Ignore:       []string{"node_modules", "build", "vendor", "dist"},
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .coderef/config.json, falling back to
// defaults when no file exists
func LoadConfig(repoRoot string) (*Config, error) {
	v := viper.New()

	v.SetDefault("version", 1)
	v.SetDefault("repoRoot", ".")
	v.SetDefault("drift.renameThreshold", 0.7)
	v.SetDefault("drift.ambiguityEpsilon", 0.01)
	v.SetDefault("impact.maxDepth", 3)
	v.SetDefault("storage.keepSnapshots", 10)
	v.SetDefault("scan.defaultInput", "scan.json")
	v.SetDefault("logging.format", "human")
	v.SetDefault("logging.level", "info")

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".coderef"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .coderef/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".coderef")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if c.Drift.RenameThreshold <= 0 || c.Drift.RenameThreshold > 1 {
		return &ConfigError{Field: "drift.renameThreshold", Message: "must be in (0, 1]"}
	}
	if c.Drift.AmbiguityEpsilon < 0 || c.Drift.AmbiguityEpsilon >= 1 {
		return &ConfigError{Field: "drift.ambiguityEpsilon", Message: "must be in [0, 1)"}
	}
	if c.Impact.MaxDepth < 1 {
		return &ConfigError{Field: "impact.maxDepth", Message: "must be at least 1"}
	}
	if c.Storage.KeepSnapshots < 1 {
		return &ConfigError{Field: "storage.keepSnapshots", Message: "must be at least 1"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
