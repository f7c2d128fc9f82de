// Package config loads application configuration: the default preset and
// any user-defined presets layered over the built-ins.
package config

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keagan/beatgrid/internal/analysis"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all application configuration.
type Config struct {
	Preset  string                  `yaml:"preset"`
	Verbose bool                    `yaml:"verbose"`
	Presets map[string]PresetConfig `yaml:"presets"`
}

// PresetConfig is the yaml shape of a custom analysis preset.
type PresetConfig struct {
	DensityMin      float64 `yaml:"density_min"`
	DensityMax      float64 `yaml:"density_max"`
	EnergyThreshold float64 `yaml:"energy_threshold"`
	OnsetDedupMs    int     `yaml:"onset_dedup_ms"`
	EnergyDedupMs   int     `yaml:"energy_dedup_ms"`
	MaxGap          float64 `yaml:"max_gap"`
}

func (pc PresetConfig) toPreset(name string) analysis.Preset {
	return analysis.Preset{
		Name:            name,
		DensityMin:      pc.DensityMin,
		DensityMax:      pc.DensityMax,
		EnergyThreshold: pc.EnergyThreshold,
		OnsetDedup:      time.Duration(pc.OnsetDedupMs) * time.Millisecond,
		EnergyDedup:     time.Duration(pc.EnergyDedupMs) * time.Millisecond,
		MaxGap:          pc.MaxGap,
	}
}

// ResolvePreset returns the named preset, preferring user-defined ones
// over built-ins. An empty name falls back to the configured default.
func (c *Config) ResolvePreset(name string) (analysis.Preset, error) {
	if name == "" {
		name = c.Preset
	}
	if pc, ok := c.Presets[name]; ok {
		p := pc.toPreset(name)
		if err := p.Validate(); err != nil {
			return analysis.Preset{}, err
		}
		return p, nil
	}
	return analysis.PresetByName(name)
}

// Load reads configuration from file or returns defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		Preset:  "standard",
		Presets: make(map[string]PresetConfig),
	}
}

func findConfigFile() string {
	candidates := []string{
		"./beatgrid.yaml",
		"./beatgrid.yml",
		filepath.Join(os.Getenv("HOME"), ".beatgrid", "config.yaml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// WithConfig stores config in context.
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
