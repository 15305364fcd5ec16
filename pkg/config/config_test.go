package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"noisesubtract/pkg/background"
)

// TestDefaultConfig verifies the defaults offered to users
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Background.Close || !cfg.Background.Far {
		t.Errorf("Expected both neighborhood tests enabled by default")
	}
	if cfg.Background.Cutoff != 3.0 {
		t.Errorf("Expected cutoff 3.0, got %f", cfg.Background.Cutoff)
	}
	if cfg.Output.Suffix != DefaultSuffix {
		t.Errorf("Expected suffix %q, got %q", DefaultSuffix, cfg.Output.Suffix)
	}
	if cfg.Processing.NumCores < 1 {
		t.Errorf("Expected at least one core, got %d", cfg.Processing.NumCores)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

// TestLoadConfigMissingFile verifies that a missing file yields defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Background.Cutoff != DefaultConfig().Background.Cutoff {
		t.Errorf("Expected default cutoff, got %f", cfg.Background.Cutoff)
	}
}

// TestSaveAndLoadConfig writes a modified config and reads it back
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Processing.NumCores = 3
	cfg.Background.Far = false
	cfg.Background.Cutoff = 2.5
	cfg.Output.Suffix = "_clean"
	cfg.Output.SaveMasks = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := background.Options{Close: true, Far: false, Cutoff: 2.5}
	if loaded.Options() != want {
		t.Errorf("Expected options %+v, got %+v", want, loaded.Options())
	}
	if loaded.Processing.NumCores != 3 {
		t.Errorf("Expected 3 cores, got %d", loaded.Processing.NumCores)
	}
	if loaded.Output.Suffix != "_clean" || !loaded.Output.SaveMasks {
		t.Errorf("Output section not preserved: %+v", loaded.Output)
	}
}

// TestLoadConfigPartial verifies that keys absent from the file keep defaults
func TestLoadConfigPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("background:\n  cutoff: 1.5\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Background.Cutoff != 1.5 {
		t.Errorf("Expected cutoff 1.5, got %f", cfg.Background.Cutoff)
	}
	if !cfg.Background.Close || !cfg.Background.Far {
		t.Errorf("Expected tests to keep their defaults")
	}
	if cfg.Output.Suffix != DefaultSuffix {
		t.Errorf("Expected default suffix, got %q", cfg.Output.Suffix)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("background: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Errorf("Expected an error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Background.Cutoff = -2
	if err := cfg.Validate(); !errors.Is(err, background.ErrInvalidOptions) {
		t.Errorf("Expected ErrInvalidOptions, got %v", err)
	}

	cfg = DefaultConfig()
	cfg.Processing.NumCores = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected an error for zero cores")
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Config file not created: %v", err)
	}
}
