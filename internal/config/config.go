package config

import (
	"fmt"
	"image/color"
	"strings"

	"figure-stand/internal/models"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// FIGURE_STAND_OUTLINE_GAP=30.
const EnvPrefix = "FIGURE_STAND"

type Config struct {
	Outline   OutlineConfig   `mapstructure:"outline"`
	Threshold ThresholdConfig `mapstructure:"threshold"`
	Contour   ContourConfig   `mapstructure:"contour"`
	Footprint FootprintConfig `mapstructure:"footprint"`
	Pedestal  PedestalConfig  `mapstructure:"pedestal"`
	Merge     MergeConfig     `mapstructure:"merge"`
	LogLevel  string          `mapstructure:"log_level"`

	// MemoryLimitMB caps the artifacts one figure may hold.
	MemoryLimitMB int `mapstructure:"memory_limit_mb"`
}

type OutlineConfig struct {
	Gap       int `mapstructure:"gap"`
	Thickness int `mapstructure:"thickness"`
}

type ThresholdConfig struct {
	Alpha         int     `mapstructure:"alpha"`
	CleanupKernel int     `mapstructure:"cleanup_kernel"`
	BlurSigma     float64 `mapstructure:"blur_sigma"`
}

type ContourConfig struct {
	Refine       bool    `mapstructure:"refine"`
	Subdivisions int     `mapstructure:"subdivisions"`
	EpsilonRatio float64 `mapstructure:"epsilon_ratio"`
}

type FootprintConfig struct {
	Margin int `mapstructure:"margin"`
}

type PedestalConfig struct {
	AssetDir string `mapstructure:"asset_dir"`
	Default  string `mapstructure:"default"`
	// Catalog replaces the built-in pedestal list when non-empty.
	Catalog []models.PedestalSpec `mapstructure:"catalog"`
	// Marker stamps the footprint marker on the composite.
	Marker bool `mapstructure:"marker"`
}

type MergeConfig struct {
	TouchRadius int `mapstructure:"touch_radius"`
	// StrokeColor is the hex color ("#rrggbb") the unified boundary is drawn in.
	StrokeColor string `mapstructure:"stroke_color"`
}

// Stroke parses StrokeColor, falling back to opaque red.
func (m MergeConfig) Stroke() color.RGBA {
	c, err := ParseColor(m.StrokeColor)
	if err != nil {
		return color.RGBA{R: 255, A: 255}
	}
	return c
}

// ParseColor reads a "#rrggbb" hex string into an opaque color.
func ParseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// Load reads configPath (YAML) on top of the defaults and applies
// FIGURE_STAND_* environment overrides. An empty path skips the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Outline:   OutlineConfig{Gap: 20, Thickness: 3},
		Threshold: ThresholdConfig{Alpha: 200, CleanupKernel: 3},
		Contour:   ContourConfig{Refine: false, Subdivisions: 8, EpsilonRatio: 0.0008},
		Footprint: FootprintConfig{Margin: 8},
		Pedestal:  PedestalConfig{AssetDir: "./assets", Default: "16mm"},
		Merge:     MergeConfig{TouchRadius: 1, StrokeColor: "#ff0000"},
		LogLevel:  "info",

		MemoryLimitMB: 1024,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("outline.gap", d.Outline.Gap)
	v.SetDefault("outline.thickness", d.Outline.Thickness)

	v.SetDefault("threshold.alpha", d.Threshold.Alpha)
	v.SetDefault("threshold.cleanup_kernel", d.Threshold.CleanupKernel)
	v.SetDefault("threshold.blur_sigma", d.Threshold.BlurSigma)

	v.SetDefault("contour.refine", d.Contour.Refine)
	v.SetDefault("contour.subdivisions", d.Contour.Subdivisions)
	v.SetDefault("contour.epsilon_ratio", d.Contour.EpsilonRatio)

	v.SetDefault("footprint.margin", d.Footprint.Margin)

	v.SetDefault("pedestal.asset_dir", d.Pedestal.AssetDir)
	v.SetDefault("pedestal.default", d.Pedestal.Default)
	v.SetDefault("pedestal.marker", d.Pedestal.Marker)

	v.SetDefault("merge.touch_radius", d.Merge.TouchRadius)
	v.SetDefault("merge.stroke_color", d.Merge.StrokeColor)

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("memory_limit_mb", d.MemoryLimitMB)
}

// Validate rejects values no stage can work with.
func (c *Config) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.Threshold.Alpha < 0 || c.Threshold.Alpha > 255 {
		return models.NewValidationError("threshold.alpha", c.Threshold.Alpha, "must be in [0,255]")
	}
	if c.Threshold.CleanupKernel < 0 {
		return models.NewValidationError("threshold.cleanup_kernel", c.Threshold.CleanupKernel, "must be >= 0")
	}
	if c.Threshold.BlurSigma < 0 {
		return models.NewValidationError("threshold.blur_sigma", c.Threshold.BlurSigma, "must be >= 0")
	}
	if c.Contour.Subdivisions < 1 {
		return models.NewValidationError("contour.subdivisions", c.Contour.Subdivisions, "must be >= 1")
	}
	if c.Contour.EpsilonRatio < 0 {
		return models.NewValidationError("contour.epsilon_ratio", c.Contour.EpsilonRatio, "must be >= 0")
	}
	if c.Footprint.Margin < 0 {
		return models.NewValidationError("footprint.margin", c.Footprint.Margin, "must be >= 0")
	}
	if c.Merge.TouchRadius < 0 {
		return models.NewValidationError("merge.touch_radius", c.Merge.TouchRadius, "must be >= 0")
	}
	if _, err := ParseColor(c.Merge.StrokeColor); err != nil {
		return models.NewValidationError("merge.stroke_color", c.Merge.StrokeColor, err.Error())
	}
	if c.MemoryLimitMB <= 0 {
		return models.NewValidationError("memory_limit_mb", c.MemoryLimitMB, "must be > 0")
	}
	for _, spec := range c.Pedestal.Catalog {
		if spec.Name == "" {
			return models.NewValidationError("pedestal.catalog.name", spec.Name, "must not be empty")
		}
		if spec.Width <= 0 || spec.Height <= 0 {
			return models.NewValidationError("pedestal.catalog."+spec.Name, fmt.Sprintf("%dx%d", spec.Width, spec.Height), "size must be positive")
		}
	}
	return nil
}

// Params returns the run parameters configured as defaults.
func (c *Config) Params() models.Params {
	return models.Params{
		Gap:       c.Outline.Gap,
		Thickness: c.Outline.Thickness,
		Pedestal:  c.Pedestal.Default,
	}
}
