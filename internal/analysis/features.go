package analysis

import (
	"math"
	"sort"
)

// Frame geometry defaults. Energy-oriented passes use the coarser hop,
// classification uses the finer one.
const (
	defaultFrameSize = 2048
	energyHopSize    = 1024
	classifyHopSize  = 512
)

// FrameFeatures holds the per-frame scalars the detectors consume.
// Spectral fields are only meaningful when HasSpectral is set; a provider
// failure on a single frame leaves them absent without aborting extraction.
type FrameFeatures struct {
	Index    int
	Energy   float64 // RMS over the frame
	LowBand  float64 // summed squared magnitude, bottom 10% of bins
	HighBand float64 // summed squared magnitude, bins 40-80%
	Centroid float64 // energy-weighted mean bin index

	HasSpectral bool
}

// featureSet is the full feature history for one frame geometry.
// It lives for exactly one analysis call.
type featureSet struct {
	frameSize  int
	hopSize    int
	sampleRate int
	frames     []FrameFeatures

	// Track-wide maxima, precomputed so classification is a pure lookup.
	maxEnergy float64
	maxLow    float64
	maxHigh   float64
}

// extractFeatures slices the signal into overlapping frames and computes
// per-frame features. When provider is non-nil, spectral band energies and
// the centroid are derived from its magnitude spectra.
func extractFeatures(sig Signal, frameSize, hopSize int, provider FeatureProvider) *featureSet {
	fs := &featureSet{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sig.SampleRate,
	}

	n := len(sig.Samples)
	if n < frameSize || hopSize <= 0 {
		return fs
	}

	numFrames := (n - frameSize) / hopSize
	fs.frames = make([]FrameFeatures, 0, numFrames)

	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		frame := sig.Samples[start : start+frameSize]

		var sumSq float64
		for _, s := range frame {
			sumSq += s * s
		}

		ff := FrameFeatures{
			Index:  i,
			Energy: math.Sqrt(sumSq / float64(frameSize)),
		}

		if provider != nil {
			if mag, err := provider.Spectrum(frame); err == nil && len(mag) > 0 {
				ff.LowBand, ff.HighBand, ff.Centroid = bandEnergies(mag)
				ff.HasSpectral = true
			}
		}

		if ff.Energy > fs.maxEnergy {
			fs.maxEnergy = ff.Energy
		}
		if ff.LowBand > fs.maxLow {
			fs.maxLow = ff.LowBand
		}
		if ff.HighBand > fs.maxHigh {
			fs.maxHigh = ff.HighBand
		}

		fs.frames = append(fs.frames, ff)
	}

	return fs
}

// bandEnergies splits a magnitude spectrum into the bass band (bottom 10%
// of bins) and the snare/hi-hat band (bins 40-80%), and computes the
// energy-weighted mean bin index.
func bandEnergies(mag []float64) (low, high, centroid float64) {
	nBins := len(mag)
	lowEnd := nBins / 10
	if lowEnd < 1 {
		lowEnd = 1
	}
	highStart := nBins * 2 / 5
	highEnd := nBins * 4 / 5

	var total, weighted float64
	for i, m := range mag {
		e := m * m
		if i < lowEnd {
			low += e
		}
		if i >= highStart && i < highEnd {
			high += e
		}
		total += e
		weighted += e * float64(i)
	}
	if total > 0 {
		centroid = weighted / total
	}
	return low, high, centroid
}

// frameAt returns the index of the frame nearest t, clamped to range.
func (fs *featureSet) frameAt(t float64) int {
	if len(fs.frames) == 0 {
		return -1
	}
	i := int(t * float64(fs.sampleRate) / float64(fs.hopSize))
	if i < 0 {
		i = 0
	}
	if i >= len(fs.frames) {
		i = len(fs.frames) - 1
	}
	return i
}

// timeOf converts a frame index to seconds.
func (fs *featureSet) timeOf(i int) float64 {
	return float64(i*fs.hopSize) / float64(fs.sampleRate)
}

// energies returns the raw energy sequence.
func (fs *featureSet) energies() []float64 {
	e := make([]float64, len(fs.frames))
	for i, f := range fs.frames {
		e[i] = f.Energy
	}
	return e
}

// hasSpectral reports whether any frame carries spectral features.
func (fs *featureSet) hasSpectral() bool {
	return fs.maxLow > 0 || fs.maxHigh > 0
}

func meanFloat(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func medianFloat(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// percentile returns the value at rank p (0..1) of xs.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
