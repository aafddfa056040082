/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/nexkit/pkg/logger"
	"github.com/ssargent/nexkit/pkg/nexfile"
)

// Config represents the nexkit configuration
type Config struct {
	ArchiveDir string  `yaml:"archive_dir"`
	Port       int     `yaml:"port"`
	Bind       string  `yaml:"bind"`
	Writer     Writer  `yaml:"writer"`
	Logging    Logging `yaml:"logging"`
}

// Writer contains the defaults used when files are written
type Writer struct {
	Format         string `yaml:"format"`          // nex | nex5
	SampleEncoding string `yaml:"sample_encoding"` // float32 | int16
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console | json
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		ArchiveDir: "./archive",
		Port:       9300,
		Bind:       "127.0.0.1",
		Writer: Writer{
			Format:         "nex5",
			SampleEncoding: "float32",
		},
		Logging: Logging{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}

// Validate checks every value that has a fixed vocabulary
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if _, err := nexfile.ParseFormat(c.Writer.Format); err != nil {
		return fmt.Errorf("writer.format: %w", err)
	}
	if _, err := nexfile.ParseSampleEncoding(c.Writer.SampleEncoding); err != nil {
		return fmt.Errorf("writer.sample_encoding: %w", err)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch c.Logging.Format {
	case "", logger.FormatConsole, logger.FormatJSON:
	default:
		return fmt.Errorf("logging.format: unknown log format %q", c.Logging.Format)
	}
	return nil
}

// WriterConfig converts the writer section into nexfile settings
func (c *Config) WriterConfig() (nexfile.WriterConfig, error) {
	format, err := nexfile.ParseFormat(c.Writer.Format)
	if err != nil {
		return nexfile.WriterConfig{}, err
	}
	encoding, err := nexfile.ParseSampleEncoding(c.Writer.SampleEncoding)
	if err != nil {
		return nexfile.WriterConfig{}, err
	}
	return nexfile.WriterConfig{Format: format, SampleEncoding: encoding}, nil
}

// LoadConfig loads configuration from the specified path. Keys missing
// from the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes a default configuration, pointing the archive at
// archiveDir when given
func BootstrapConfig(configPath string, archiveDir string) (*Config, error) {
	config := DefaultConfig()
	if archiveDir != "" {
		config.ArchiveDir = archiveDir
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./nexkit.yaml"
	}

	// For Linux/macOS, use ~/.config/nexkit/config.yaml
	configDir := filepath.Join(homeDir, ".config", "nexkit")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
