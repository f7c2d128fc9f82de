package analysis

import (
	"testing"
	"time"
)

func TestBuiltinPresetValues(t *testing.T) {
	tests := []struct {
		preset      Preset
		densityMin  float64
		densityMax  float64
		energy      float64
		onsetDedup  time.Duration
		energyDedup time.Duration
		maxGap      float64
	}{
		{ChillPreset(), 0.8, 1.5, 0.75, 80 * time.Millisecond, 300 * time.Millisecond, 3.0},
		{StandardPreset(), 1.5, 2.5, 0.70, 50 * time.Millisecond, 200 * time.Millisecond, 2.0},
		{BeatHeavyPreset(), 2.5, 4.0, 0.50, 30 * time.Millisecond, 100 * time.Millisecond, 1.0},
	}

	for _, tt := range tests {
		p := tt.preset
		if p.DensityMin != tt.densityMin || p.DensityMax != tt.densityMax {
			t.Errorf("%s: density %g..%g, want %g..%g", p.Name, p.DensityMin, p.DensityMax, tt.densityMin, tt.densityMax)
		}
		if p.EnergyThreshold != tt.energy {
			t.Errorf("%s: energy threshold %g, want %g", p.Name, p.EnergyThreshold, tt.energy)
		}
		if p.OnsetDedup != tt.onsetDedup || p.EnergyDedup != tt.energyDedup {
			t.Errorf("%s: dedup %v/%v, want %v/%v", p.Name, p.OnsetDedup, p.EnergyDedup, tt.onsetDedup, tt.energyDedup)
		}
		if p.MaxGap != tt.maxGap {
			t.Errorf("%s: max gap %g, want %g", p.Name, p.MaxGap, tt.maxGap)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("%s: built-in preset should validate: %v", p.Name, err)
		}
	}
}

func TestPresetByName(t *testing.T) {
	for _, name := range []string{"chill", "standard", "beat-heavy"} {
		p, err := PresetByName(name)
		if err != nil {
			t.Errorf("PresetByName(%q): %v", name, err)
		}
		if p.Name != name {
			t.Errorf("PresetByName(%q) returned %q", name, p.Name)
		}
	}

	if _, err := PresetByName("dubstep"); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetValidate(t *testing.T) {
	mutate := func(f func(*Preset)) Preset {
		p := StandardPreset()
		f(&p)
		return p
	}

	bad := []struct {
		name   string
		preset Preset
	}{
		{"zero density_min", mutate(func(p *Preset) { p.DensityMin = 0 })},
		{"inverted density range", mutate(func(p *Preset) { p.DensityMax = 1.0 })},
		{"energy threshold above 1", mutate(func(p *Preset) { p.EnergyThreshold = 1.5 })},
		{"negative energy threshold", mutate(func(p *Preset) { p.EnergyThreshold = -0.1 })},
		{"negative onset dedup", mutate(func(p *Preset) { p.OnsetDedup = -time.Millisecond })},
		{"negative energy dedup", mutate(func(p *Preset) { p.EnergyDedup = -time.Millisecond })},
		{"zero max gap", mutate(func(p *Preset) { p.MaxGap = 0 })},
	}

	for _, tt := range bad {
		if err := tt.preset.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestMustKeepThreshold(t *testing.T) {
	if got := StandardPreset().mustKeepThreshold(); got != 0.85 {
		t.Errorf("standard threshold = %g, want 0.85", got)
	}
	// Denser presets keep more.
	if got := BeatHeavyPreset().mustKeepThreshold(); got != 0.75 {
		t.Errorf("beat-heavy threshold = %g, want 0.75", got)
	}
}
