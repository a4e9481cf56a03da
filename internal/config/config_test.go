package config

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"figure-stand/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, models.Params{Gap: 20, Thickness: 3, Pedestal: "16mm"}, cfg.Params())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
outline:
  gap: 12
  thickness: 5
contour:
  refine: true
pedestal:
  default: tall
  marker: true
  catalog:
    - name: tall
      file: tall.png
      width: 120
      height: 200
      overlap_y: -12
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Outline.Gap)
	assert.Equal(t, 5, cfg.Outline.Thickness)
	assert.True(t, cfg.Contour.Refine)
	assert.Equal(t, 8, cfg.Contour.Subdivisions, "unset keys keep defaults")
	assert.True(t, cfg.Pedestal.Marker)
	assert.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Pedestal.Catalog, 1)
	assert.Equal(t, models.PedestalSpec{Name: "tall", File: "tall.png", Width: 120, Height: 200, OverlapY: -12}, cfg.Pedestal.Catalog[0])
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FIGURE_STAND_OUTLINE_GAP", "33")
	t.Setenv("FIGURE_STAND_PEDESTAL_DEFAULT", "20mm")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 33, cfg.Outline.Gap)
	assert.Equal(t, "20mm", cfg.Pedestal.Default)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative gap", func(c *Config) { c.Outline.Gap = -1 }},
		{"alpha out of range", func(c *Config) { c.Threshold.Alpha = 300 }},
		{"negative blur", func(c *Config) { c.Threshold.BlurSigma = -0.5 }},
		{"no memory", func(c *Config) { c.MemoryLimitMB = 0 }},
		{"bad stroke color", func(c *Config) { c.Merge.StrokeColor = "red" }},
		{"zero subdivisions", func(c *Config) { c.Contour.Subdivisions = 0 }},
		{"negative margin", func(c *Config) { c.Footprint.Margin = -2 }},
		{"unnamed pedestal", func(c *Config) { c.Pedestal.Catalog = []models.PedestalSpec{{Width: 1, Height: 1}} }},
		{"sizeless pedestal", func(c *Config) { c.Pedestal.Catalog = []models.PedestalSpec{{Name: "x"}} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), models.ErrInvalidParams)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#1e90ff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x1e, G: 0x90, B: 0xff, A: 255}, c)

	_, err = ParseColor("nope")
	assert.Error(t, err)

	assert.Equal(t, color.RGBA{R: 255, A: 255}, MergeConfig{StrokeColor: "#ff0000"}.Stroke())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, MergeConfig{}.Stroke())
}
