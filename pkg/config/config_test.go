package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20, cfg.Sampling.NumSamples)
	assert.Equal(t, 0.1, cfg.Sampling.DropRate)
	assert.Equal(t, int64(42), cfg.Sampling.Seed)
	assert.Equal(t, 0.1, cfg.Sampling.ForegroundThreshold)
	assert.True(t, cfg.Impact.UseConnectivity)
	assert.True(t, cfg.Impact.UseSqrtTransform)
	assert.Equal(t, 0.5, cfg.Selection.Alpha)
	assert.Equal(t, []float64{0.05, 0.10, 0.20, 0.30, 0.50}, cfg.Evaluation.BudgetFractions)
	assert.True(t, cfg.Evaluation.IncludeOracle)

	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"zero samples", func(cfg *Config) { cfg.Sampling.NumSamples = 0 }},
		{"drop rate zero", func(cfg *Config) { cfg.Sampling.DropRate = 0 }},
		{"drop rate one", func(cfg *Config) { cfg.Sampling.DropRate = 1 }},
		{"threshold one", func(cfg *Config) { cfg.Sampling.ForegroundThreshold = 1 }},
		{"alpha negative", func(cfg *Config) { cfg.Selection.Alpha = -0.1 }},
		{"alpha above one", func(cfg *Config) { cfg.Selection.Alpha = 1.5 }},
		{"no budgets", func(cfg *Config) { cfg.Evaluation.BudgetFractions = nil }},
		{"budget above one", func(cfg *Config) { cfg.Evaluation.BudgetFractions = []float64{0.1, 1.2} }},
		{"negative budget", func(cfg *Config) { cfg.Evaluation.BudgetFractions = []float64{-0.1} }},
		{"zero workers", func(cfg *Config) { cfg.Evaluation.NumWorkers = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
sampling:
  numSamples: 5
selection:
  alpha: 0.7
evaluation:
  budgetFractions: [0.1, 0.2]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Sampling.NumSamples)
	assert.Equal(t, 0.7, cfg.Selection.Alpha)
	assert.Equal(t, []float64{0.1, 0.2}, cfg.Evaluation.BudgetFractions)

	// Unspecified fields keep their defaults.
	assert.Equal(t, 0.1, cfg.Sampling.DropRate)
	assert.Equal(t, int64(42), cfg.Selection.RandomSeed)
}

func TestLoadConfigRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selection:\n  alpha: 2.0\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha")
}

func TestSaveLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Selection.Alpha = 0.25
	cfg.Evaluation.NumWorkers = 3
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
