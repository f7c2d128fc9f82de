package analysis

import (
	"math"
	"testing"
)

// classifierFixture builds a feature set whose frame 0 pins the track
// maxima at 1.0 so later frames carry their band values as ratios.
func classifierFixture(frames ...FrameFeatures) *classifier {
	all := append([]FrameFeatures{{LowBand: 1, HighBand: 1, Energy: 1, HasSpectral: true}}, frames...)
	fs := &featureSet{frameSize: defaultFrameSize, hopSize: classifyHopSize, sampleRate: 8192}
	for i := range all {
		all[i].Index = i
		if all[i].Energy > fs.maxEnergy {
			fs.maxEnergy = all[i].Energy
		}
		if all[i].LowBand > fs.maxLow {
			fs.maxLow = all[i].LowBand
		}
		if all[i].HighBand > fs.maxHigh {
			fs.maxHigh = all[i].HighBand
		}
	}
	fs.frames = all
	return newClassifier(fs)
}

// frameTime converts a fixture frame index to seconds (hop 512 @ 8192Hz).
func frameTime(i int) float64 {
	return float64(i*classifyHopSize) / 8192.0
}

func TestClassifySpectralRules(t *testing.T) {
	tests := []struct {
		name          string
		low, high     float64
		wantType      SyncPointType
		wantIntensity float64
	}{
		{"strong bass is a drop", 0.9, 0.1, TypeDrop, 1.0},
		{"moderate bass", 0.75, 0.2, TypeBass, 0.95},
		{"treble transient is a snare", 0.3, 0.7, TypeSnare, 0.8},
		{"balanced energy is a hit", 0.55, 0.45, TypeHit, 0.7},
		{"weak frame defaults to hit", 0.2, 0.2, TypeHit, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := classifierFixture(FrameFeatures{
				Energy:      0.5,
				LowBand:     tt.low,
				HighBand:    tt.high,
				HasSpectral: true,
			})

			typ, intensity := cls.classify(frameTime(1), -1)
			if typ != tt.wantType {
				t.Errorf("type = %s, want %s", typ, tt.wantType)
			}
			if math.Abs(intensity-tt.wantIntensity) > 1e-9 {
				t.Errorf("intensity = %f, want %f", intensity, tt.wantIntensity)
			}
		})
	}
}

func TestClassifyEnergyFallback(t *testing.T) {
	// No spectral features on the frame: the reduced energy-only rule.
	tests := []struct {
		intensity float64
		wantType  SyncPointType
	}{
		{0.9, TypeDrop},
		{0.6, TypeBass},
		{0.3, TypeHit},
	}

	for _, tt := range tests {
		cls := classifierFixture(FrameFeatures{Energy: 0.5})
		typ, intensity := cls.classify(frameTime(1), tt.intensity)
		if typ != tt.wantType {
			t.Errorf("intensity %f: type = %s, want %s", tt.intensity, typ, tt.wantType)
		}
		if intensity != tt.intensity {
			t.Errorf("fallback must keep the caller's intensity, got %f", intensity)
		}
	}
}

func TestClassifyDerivesIntensityWhenUnknown(t *testing.T) {
	cls := classifierFixture(FrameFeatures{Energy: 0.25})

	// Negative sentinel: derive from frame energy over the track max.
	_, intensity := cls.classify(frameTime(1), -1)
	if math.Abs(intensity-0.25) > 1e-9 {
		t.Errorf("derived intensity = %f, want 0.25", intensity)
	}
}

func TestClassifyEmptyFeatureSet(t *testing.T) {
	cls := newClassifier(&featureSet{frameSize: defaultFrameSize, hopSize: classifyHopSize, sampleRate: 8192})
	typ, intensity := cls.classify(1.0, -1)
	if typ != TypeHit || intensity != 0.5 {
		t.Errorf("empty history should yield hit@0.5, got %s@%f", typ, intensity)
	}
}
