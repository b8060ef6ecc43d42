// Package config provides configuration loading for the automation toolkit.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Config holds the per-user settings shared by all three binaries. Flags
// override config values; config values override defaults.
type Config struct {
	// DataDir is the per-user automation directory holding workflow
	// documents, the execution log and pattern artifacts.
	DataDir string `yaml:"data_dir"`

	// HistoryFile is the interactive command-history stream mined for
	// patterns.
	HistoryFile string `yaml:"history_file"`

	LogLevel string `yaml:"log_level"`

	// DefaultStepTimeout is the per-step timeout in seconds applied when a
	// step declares none.
	DefaultStepTimeout int `yaml:"default_step_timeout"`

	// ParallelWorkers caps the fan-out of parallel workflows.
	ParallelWorkers int `yaml:"parallel_workers"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:            filepath.Join(xdg.DataHome, "autoflow"),
		HistoryFile:        filepath.Join(xdg.Home, ".bash_history"),
		LogLevel:           "info",
		DefaultStepTimeout: 300,
		ParallelWorkers:    4,
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "autoflow", "config.yaml")
}

// Load reads the YAML config at path, filling unset fields with defaults.
// A missing file is not an error; the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}

	if cfg.HistoryFile == "" {
		cfg.HistoryFile = Default().HistoryFile
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = Default().LogLevel
	}

	if cfg.DefaultStepTimeout <= 0 {
		cfg.DefaultStepTimeout = Default().DefaultStepTimeout
	}

	if cfg.ParallelWorkers <= 0 {
		cfg.ParallelWorkers = Default().ParallelWorkers
	}

	return cfg, nil
}
