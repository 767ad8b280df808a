package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"empty horizons", func(c *Config) { c.Horizons = nil }, true},
		{"negative horizon", func(c *Config) { c.Horizons = []int{-1} }, true},
		{"evaluation horizon not in horizons", func(c *Config) { c.EvaluationHorizon = 99 }, true},
		{"non-decreasing sample sizes", func(c *Config) { c.MinSampleSizes.Primary = 200 }, true},
		{"zero top n", func(c *Config) { c.TopN = 0 }, true},
		{"zero portfolio amount", func(c *Config) { c.PortfolioCurrencyAmount = 0 }, true},
		{"sector cap out of range", func(c *Config) { c.SectorCapPct = 1.5 }, true},
		{"empty universe path", func(c *Config) { c.UniversePath = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/path/does-not-exist.toml")
	require.NoError(t, err)
	assert.Equal(t, Default().Horizons, cfg.Horizons)
}
