// Package config loads the analysis run configuration: the fixed policy
// constants and the observation window, plus output locations. Fields
// omitted from the JSON file fall back to defaults, so partial configs are
// safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the canonical defaults file checked into the repo.
const DefaultConfigPath = "config/analysis.defaults.json"

// ConfigError means the configuration is invalid. It is fatal: the run
// aborts before any computation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s %s", e.Field, e.Reason)
}

// Config is the run configuration. Pointer fields distinguish "omitted" from
// zero so partial files only override what they name.
type Config struct {
	// Policy constants
	ProcessingCostPerCase *float64 `json:"processing_cost_per_case,omitempty"`
	DiversionRate         *float64 `json:"diversion_rate,omitempty"`
	TargetActiveRate      *float64 `json:"target_active_rate,omitempty"`

	// Observation window of the source export, in days. Used to annualize
	// the savings estimate.
	ObservationWindowDays *int `json:"observation_window_days,omitempty"`

	// Output locations
	OutputDir *string `json:"output_dir,omitempty"`
	ChartsDir *string `json:"charts_dir,omitempty"`

	// Geographic reference data (YAML). Empty means the baked-in defaults.
	ReferencePath *string `json:"reference_path,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads and validates a config file. The file must be JSON and under
// 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the policy constants. Errors here are *ConfigError.
func (c *Config) Validate() error {
	if c.ProcessingCostPerCase != nil && *c.ProcessingCostPerCase < 0 {
		return &ConfigError{Field: "processing_cost_per_case", Reason: "must be non-negative"}
	}
	if c.DiversionRate != nil && (*c.DiversionRate < 0 || *c.DiversionRate > 1) {
		return &ConfigError{Field: "diversion_rate", Reason: "must be between 0 and 1"}
	}
	if c.TargetActiveRate != nil && (*c.TargetActiveRate < 0 || *c.TargetActiveRate > 1) {
		return &ConfigError{Field: "target_active_rate", Reason: "must be between 0 and 1"}
	}
	if c.ObservationWindowDays != nil && *c.ObservationWindowDays <= 0 {
		return &ConfigError{Field: "observation_window_days", Reason: "must be positive"}
	}
	return nil
}

// GetProcessingCostPerCase returns the per-case processing cost or the default.
func (c *Config) GetProcessingCostPerCase() float64 {
	if c.ProcessingCostPerCase == nil {
		return 45.0 // default: blended court processing cost per case
	}
	return *c.ProcessingCostPerCase
}

// GetDiversionRate returns the assumed diversion rate or the default.
func (c *Config) GetDiversionRate() float64 {
	if c.DiversionRate == nil {
		return 0.30
	}
	return *c.DiversionRate
}

// GetTargetActiveRate returns the target active-case rate or the default.
func (c *Config) GetTargetActiveRate() float64 {
	if c.TargetActiveRate == nil {
		return 0.50
	}
	return *c.TargetActiveRate
}

// GetObservationWindowDays returns the observation window or the default.
func (c *Config) GetObservationWindowDays() int {
	if c.ObservationWindowDays == nil {
		return 31 // one month of export data
	}
	return *c.ObservationWindowDays
}

// GetOutputDir returns the CSV/report output directory or the default.
func (c *Config) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "output"
	}
	return *c.OutputDir
}

// GetChartsDir returns the chart output directory or the default.
func (c *Config) GetChartsDir() string {
	if c.ChartsDir == nil || *c.ChartsDir == "" {
		return "visualizations"
	}
	return *c.ChartsDir
}

// GetReferencePath returns the geographic reference file path, or empty when
// the baked-in defaults should be used.
func (c *Config) GetReferencePath() string {
	if c.ReferencePath == nil {
		return ""
	}
	return *c.ReferencePath
}
