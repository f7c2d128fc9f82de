package analysis

import (
	"fmt"
	"time"
)

// Preset bundles the thresholds controlling detection sensitivity and
// output density. Presets are immutable for the duration of a call.
type Preset struct {
	Name            string
	DensityMin      float64 // points per second, lower bound
	DensityMax      float64 // points per second, upper bound
	EnergyThreshold float64 // energy percentile for peak detection, 0..1
	OnsetDedup      time.Duration
	EnergyDedup     time.Duration
	MaxGap          float64 // seconds, largest allowed gap between points
}

// ChillPreset suits ambient and downtempo material.
func ChillPreset() Preset {
	return Preset{
		Name:            "chill",
		DensityMin:      0.8,
		DensityMax:      1.5,
		EnergyThreshold: 0.75,
		OnsetDedup:      80 * time.Millisecond,
		EnergyDedup:     300 * time.Millisecond,
		MaxGap:          3.0,
	}
}

// StandardPreset is the default for most music.
func StandardPreset() Preset {
	return Preset{
		Name:            "standard",
		DensityMin:      1.5,
		DensityMax:      2.5,
		EnergyThreshold: 0.70,
		OnsetDedup:      50 * time.Millisecond,
		EnergyDedup:     200 * time.Millisecond,
		MaxGap:          2.0,
	}
}

// BeatHeavyPreset suits EDM and other percussion-dense material.
func BeatHeavyPreset() Preset {
	return Preset{
		Name:            "beat-heavy",
		DensityMin:      2.5,
		DensityMax:      4.0,
		EnergyThreshold: 0.50,
		OnsetDedup:      30 * time.Millisecond,
		EnergyDedup:     100 * time.Millisecond,
		MaxGap:          1.0,
	}
}

// BuiltinPresets returns the shipped presets in display order.
func BuiltinPresets() []Preset {
	return []Preset{ChillPreset(), StandardPreset(), BeatHeavyPreset()}
}

// PresetByName looks up a built-in preset.
func PresetByName(name string) (Preset, error) {
	for _, p := range BuiltinPresets() {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("unknown preset %q", name)
}

// Validate rejects configuration errors. A bad preset is a programming
// mistake, not a runtime condition to route around.
func (p Preset) Validate() error {
	if p.DensityMin <= 0 {
		return fmt.Errorf("preset %q: density_min must be positive, got %g", p.Name, p.DensityMin)
	}
	if p.DensityMax < p.DensityMin {
		return fmt.Errorf("preset %q: density_max %g is below density_min %g", p.Name, p.DensityMax, p.DensityMin)
	}
	if p.EnergyThreshold < 0 || p.EnergyThreshold > 1 {
		return fmt.Errorf("preset %q: energy_threshold must be in [0,1], got %g", p.Name, p.EnergyThreshold)
	}
	if p.OnsetDedup < 0 {
		return fmt.Errorf("preset %q: onset_dedup must not be negative", p.Name)
	}
	if p.EnergyDedup < 0 {
		return fmt.Errorf("preset %q: energy_dedup must not be negative", p.Name)
	}
	if p.MaxGap <= 0 {
		return fmt.Errorf("preset %q: max_gap must be positive, got %g", p.Name, p.MaxGap)
	}
	return nil
}

// mustKeepThreshold is the intensity above which a point always survives
// density filtering. Denser presets keep more.
func (p Preset) mustKeepThreshold() float64 {
	if p.EnergyThreshold <= 0.6 {
		return 0.75
	}
	return 0.85
}
