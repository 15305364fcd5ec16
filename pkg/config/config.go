// Package config provides configuration loading and management for noisesubtract.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"noisesubtract/pkg/background"
)

// DefaultSuffix is appended to the base name of every output file
const DefaultSuffix = "_background-subtracted"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many slices are processed concurrently
		NumCores int `yaml:"numCores"`
	} `yaml:"processing"`

	// Background removal parameters
	Background struct {
		// Close enables the 3x3 ring test
		Close bool `yaml:"close"`

		// Far enables the 5x5 ring test
		Far bool `yaml:"far"`

		// Cutoff is the multiple of the border standard deviation used as threshold
		Cutoff float64 `yaml:"cutoff"`
	} `yaml:"background"`

	// Output parameters
	Output struct {
		// Suffix is appended to each input base name
		Suffix string `yaml:"suffix"`

		// SaveMasks writes the final classification of each slice as a PNG
		SaveMasks bool `yaml:"saveMasks"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`

		// JSONLog switches the console log format to JSON lines
		JSONLog bool `yaml:"jsonLog"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Processing.NumCores = runtime.NumCPU()

	opts := background.DefaultOptions()
	cfg.Background.Close = opts.Close
	cfg.Background.Far = opts.Far
	cfg.Background.Cutoff = opts.Cutoff

	cfg.Output.Suffix = DefaultSuffix
	cfg.Output.SaveMasks = false
	cfg.Output.Verbose = false
	cfg.Output.JSONLog = false

	return cfg
}

// Options returns the background removal options described by the config
func (c *Config) Options() background.Options {
	return background.Options{
		Close:  c.Background.Close,
		Far:    c.Background.Far,
		Cutoff: c.Background.Cutoff,
	}
}

// Validate checks the configuration once, before any slice is processed
func (c *Config) Validate() error {
	if c.Processing.NumCores < 1 {
		return fmt.Errorf("numCores must be at least 1, got %d", c.Processing.NumCores)
	}
	if err := c.Options().Validate(); err != nil {
		return err
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
