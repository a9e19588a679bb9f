// Package config provides configuration loading and management for slicetriage.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Sampling parameters for the uncertainty estimator
	Sampling struct {
		// NumSamples is the number of stochastic forward passes (T)
		NumSamples int `yaml:"numSamples"`

		// DropRate is the unit-dropping probability during sampling
		DropRate float64 `yaml:"dropRate"`

		// Seed is the base random seed; the per-slice seed is derived from
		// it so results are reproducible regardless of processing order
		Seed int64 `yaml:"seed"`

		// ForegroundThreshold gates which pixels count toward the scalar
		// slice uncertainty (pixels with mean probability above it)
		ForegroundThreshold float64 `yaml:"foregroundThreshold"`
	} `yaml:"sampling"`

	// Impact parameters for the volumetric impact estimator
	Impact struct {
		// UseConnectivity weights each slice by adjacent-slice foreground
		UseConnectivity bool `yaml:"useConnectivity"`

		// UseSqrtTransform applies the concave sqrt stabilization
		UseSqrtTransform bool `yaml:"useSqrtTransform"`
	} `yaml:"impact"`

	// Selection parameters shared by the strategies
	Selection struct {
		// Alpha is the fixed fusion weight between uncertainty and impact.
		// It is configuration, never fit from data.
		Alpha float64 `yaml:"alpha"`

		// RandomSeed seeds the random baseline strategy
		RandomSeed int64 `yaml:"randomSeed"`
	} `yaml:"selection"`

	// Evaluation parameters for the orchestrator
	Evaluation struct {
		// BudgetFractions are the budgets to evaluate, each as a fraction
		// of the patient's slice count
		BudgetFractions []float64 `yaml:"budgetFractions"`

		// NumWorkers is the number of patients evaluated concurrently
		NumWorkers int `yaml:"numWorkers"`

		// IncludeOracle adds the ground-truth upper bound to the roster
		IncludeOracle bool `yaml:"includeOracle"`
	} `yaml:"evaluation"`

	// Output parameters
	Output struct {
		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default sampling parameters
	cfg.Sampling.NumSamples = 20
	cfg.Sampling.DropRate = 0.1
	cfg.Sampling.Seed = 42
	cfg.Sampling.ForegroundThreshold = 0.1

	// Set default impact parameters
	cfg.Impact.UseConnectivity = true
	cfg.Impact.UseSqrtTransform = true

	// Set default selection parameters
	cfg.Selection.Alpha = 0.5
	cfg.Selection.RandomSeed = 42

	// Set default evaluation parameters
	cfg.Evaluation.BudgetFractions = []float64{0.05, 0.10, 0.20, 0.30, 0.50}
	cfg.Evaluation.NumWorkers = runtime.NumCPU()
	cfg.Evaluation.IncludeOracle = true

	cfg.Output.Verbose = true

	return cfg
}

// Validate rejects malformed configuration before any computation begins.
// Budget fractions above 1 and alpha outside [0,1] are validation errors,
// not runtime conditions.
func (cfg *Config) Validate() error {
	if cfg.Sampling.NumSamples < 1 {
		return fmt.Errorf("sampling.numSamples must be at least 1, got %d", cfg.Sampling.NumSamples)
	}
	if cfg.Sampling.DropRate <= 0 || cfg.Sampling.DropRate >= 1 {
		return fmt.Errorf("sampling.dropRate must be in (0, 1), got %g", cfg.Sampling.DropRate)
	}
	if cfg.Sampling.ForegroundThreshold < 0 || cfg.Sampling.ForegroundThreshold >= 1 {
		return fmt.Errorf("sampling.foregroundThreshold must be in [0, 1), got %g", cfg.Sampling.ForegroundThreshold)
	}
	if cfg.Selection.Alpha < 0 || cfg.Selection.Alpha > 1 {
		return fmt.Errorf("selection.alpha must be in [0, 1], got %g", cfg.Selection.Alpha)
	}
	if len(cfg.Evaluation.BudgetFractions) == 0 {
		return fmt.Errorf("evaluation.budgetFractions must not be empty")
	}
	for _, b := range cfg.Evaluation.BudgetFractions {
		if b < 0 || b > 1 {
			return fmt.Errorf("evaluation.budgetFractions entries must be in [0, 1], got %g", b)
		}
	}
	if cfg.Evaluation.NumWorkers < 1 {
		return fmt.Errorf("evaluation.numWorkers must be at least 1, got %d", cfg.Evaluation.NumWorkers)
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
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
