package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plrcli/internal/plr"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 11.7, cfg.Analysis.NominalIrisMM, 1e-12)
	assert.Equal(t, "seconds", cfg.Analysis.TimeUnit)
	assert.Equal(t, "uniform", cfg.NoiseReduction.WindowShape)
	assert.Equal(t, 4, cfg.Processing.Workers)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plr.yaml")
	content := `
analysis:
  nominal_iris_size_mm: 12.0
blink:
  openness_threshold: 0.25
  blink_interval_window: 5
noise_reduction:
  smoothing_window: 9
  smoothing_window_type: triangular
  stable_interval_start: -2.0
  stable_interval_end: -1.0
constriction:
  ctn_start_velocity_threshold_mms: -0.3
dataloss:
  warning: 0.1
  error: 0.4
paths:
  data_dir: /srv/recordings
  output_dir: /srv/reports
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Every option name takes effect, none falls back to its default.
	assert.InDelta(t, 12.0, cfg.Analysis.NominalIrisMM, 1e-12)
	assert.InDelta(t, 0.25, cfg.Blink.OpennessThreshold, 1e-12)
	assert.Equal(t, 5, cfg.Blink.IntervalWindow)
	assert.Equal(t, 9, cfg.NoiseReduction.Window)
	assert.Equal(t, "triangular", cfg.NoiseReduction.WindowShape)
	assert.InDelta(t, -2.0, cfg.NoiseReduction.StableStart, 1e-12)
	assert.InDelta(t, -1.0, cfg.NoiseReduction.StableEnd, 1e-12)
	assert.InDelta(t, -0.3, cfg.Constriction.VelocityThreshold, 1e-12)
	assert.InDelta(t, 0.1, cfg.Dataloss.WarningRatio, 1e-12)
	assert.InDelta(t, 0.4, cfg.Dataloss.ErrorRatio, 1e-12)
	assert.Equal(t, "/srv/recordings", cfg.GetDataDir())
	// Untouched sections keep their defaults.
	assert.Equal(t, 11, cfg.Constriction.SGWindow)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataloss:\n  error: 0.3\n"), 0o644))

	t.Setenv("PLR_DATALOSS_ERROR", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.Dataloss.ErrorRatio, 1e-12)
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero iris", func(c *Config) { c.Analysis.NominalIrisMM = 0 }},
		{"unknown time unit", func(c *Config) { c.Analysis.TimeUnit = "frames" }},
		{"even blink window", func(c *Config) { c.Blink.SGWindow = 10 }},
		{"window below order", func(c *Config) { c.Constriction.SGWindow = 3; c.Constriction.SGPolyOrder = 4 }},
		{"positive velocity threshold", func(c *Config) { c.Constriction.VelocityThreshold = 0.5 }},
		{"error below warning", func(c *Config) { c.Dataloss.WarningRatio = 0.4; c.Dataloss.ErrorRatio = 0.1 }},
		{"stable interval reversed", func(c *Config) { c.NoiseReduction.StableStart = -0.5; c.NoiseReduction.StableEnd = -1.5 }},
		{"unknown window shape", func(c *Config) { c.NoiseReduction.WindowShape = "hann" }},
		{"zero workers", func(c *Config) { c.Processing.Workers = 0 }},
		{"empty data dir", func(c *Config) { c.Paths.DataDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestToEngine(t *testing.T) {
	cfg := Default()
	cfg.Analysis.TimeUnit = "milliseconds"
	cfg.NoiseReduction.WindowShape = "gaussian"

	eng := cfg.ToEngine()

	assert.Equal(t, plr.UnitMilliseconds, eng.Unit)
	assert.Equal(t, plr.WindowGaussian, eng.Smoothing.Shape)
	assert.Equal(t, cfg.Blink.SGWindow, eng.Blink.SGWindow)
	assert.InDelta(t, cfg.NoiseReduction.StableStart, eng.Smoothing.Stable.Start, 1e-12)
	assert.InDelta(t, cfg.Dataloss.ErrorRatio, eng.DataLossError, 1e-12)
}
