package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analytix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"seed: 7\ntest_fraction: 0.3\npsi_bins: 20\nenable_tuning: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), cfg.Seed)
	assert.InDelta(t, 0.3, cfg.TestFraction, 1e-9)
	assert.Equal(t, 20, cfg.PSIBins)
	assert.False(t, cfg.EnableTuning)

	// Untouched knobs keep their defaults.
	assert.Equal(t, Default().IQRMultiplier, cfg.IQRMultiplier)
	assert.Equal(t, Default().RFEMinFeatures, cfg.RFEMinFeatures)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test_fraction: 1.5\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero test fraction", func(c *Config) { c.TestFraction = 0 }, false},
		{"full test fraction", func(c *Config) { c.TestFraction = 1 }, false},
		{"missing threshold above one", func(c *Config) { c.MissingDropThreshold = 1.5 }, false},
		{"single psi bin", func(c *Config) { c.PSIBins = 1 }, false},
		{"zero rfe minimum", func(c *Config) { c.RFEMinFeatures = 0 }, false},
		{"single cv fold", func(c *Config) { c.CVFolds = 1 }, false},
		{"zero workers", func(c *Config) { c.Workers = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}
