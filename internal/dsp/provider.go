// Package dsp is the default feature provider for the analyzer: FFT
// magnitude spectra, spectral-flux onset detection, and an
// autocorrelation tempo estimate with a generated beat grid.
package dsp

import (
	"errors"
	"math"
	"math/cmplx"
	"sort"
	"sync"

	"github.com/mjibson/go-dsp/fft"

	"github.com/keagan/beatgrid/internal/analysis"
)

// Frame geometry for the onset envelope and tempo estimate.
const (
	frameSize = 2048
	hopSize   = 512
)

// Provider implements analysis.FeatureProvider in-process. It is safe
// for concurrent use; the only shared state is the window cache.
type Provider struct {
	mu      sync.Mutex
	windows map[int][]float64
}

func NewProvider() *Provider {
	return &Provider{windows: make(map[int][]float64)}
}

// window returns a cached Hamming window of length n.
func (p *Provider) window(n int) []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if w, ok := p.windows[n]; ok {
		return w
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	p.windows[n] = w
	return w
}

// Spectrum returns the magnitude spectrum of a Hamming-windowed frame,
// positive frequencies only.
func (p *Provider) Spectrum(frame []float64) ([]float64, error) {
	if len(frame) < 2 {
		return nil, errors.New("frame too short for FFT")
	}
	win := p.window(len(frame))
	buf := make([]float64, len(frame))
	for i, s := range frame {
		buf[i] = s * win[i]
	}
	spec := fft.FFTReal(buf)
	mag := make([]float64, len(spec)/2)
	for i := range mag {
		mag[i] = cmplx.Abs(spec[i])
	}
	return mag, nil
}

// onsetEnvelope computes per-frame positive spectral flux.
func (p *Provider) onsetEnvelope(sig analysis.Signal) []float64 {
	numFrames := (len(sig.Samples) - frameSize) / hopSize
	if numFrames <= 0 {
		return nil
	}

	env := make([]float64, numFrames)
	prev := make([]float64, frameSize/2)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		mag, err := p.Spectrum(sig.Samples[start : start+frameSize])
		if err != nil {
			continue
		}
		var flux float64
		for j := range mag {
			if d := mag[j] - prev[j]; d > 0 {
				flux += d
			}
		}
		env[i] = flux
		copy(prev, mag)
	}
	return env
}

// OnsetTimes returns transient times in seconds: local flux maxima more
// than one standard deviation above the mean.
func (p *Provider) OnsetTimes(sig analysis.Signal) ([]float64, error) {
	env := p.onsetEnvelope(sig)
	if len(env) < 3 {
		return nil, errors.New("track too short for onset detection")
	}

	mean := meanFloat(env)
	var variance float64
	for _, f := range env {
		variance += (f - mean) * (f - mean)
	}
	threshold := mean + math.Sqrt(variance/float64(len(env)))

	frameTime := float64(hopSize) / float64(sig.SampleRate)
	var times []float64
	for i := 1; i < len(env)-1; i++ {
		if env[i] > threshold && env[i] > env[i-1] && env[i] > env[i+1] {
			times = append(times, float64(i)*frameTime)
		}
	}
	return times, nil
}

// TempoAndTicks estimates BPM by autocorrelating the onset envelope over
// the 60-200 BPM lag range, with a perceptual weight toward 120 BPM to
// avoid octave errors, then lays a beat grid anchored on the strongest
// early onset.
func (p *Provider) TempoAndTicks(sig analysis.Signal) (float64, []float64, error) {
	env := p.onsetEnvelope(sig)
	if len(env) < 100 {
		return 0, nil, errors.New("track too short for tempo estimation")
	}

	sr := float64(sig.SampleRate)
	minLag := int(sr * 60 / (200 * hopSize))
	maxLag := int(sr * 60 / (60 * hopSize))
	if maxLag >= len(env) {
		maxLag = len(env) - 1
	}
	if minLag < 1 || minLag > maxLag {
		return 0, nil, errors.New("unusable lag range for tempo estimation")
	}

	bestLag, bestCorr := minLag, -1.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		count := 0
		for i := 0; i+lag < len(env); i++ {
			corr += env[i] * env[i+lag]
			count++
		}
		if count > 0 {
			corr /= float64(count)
		}

		bpmApprox := 60.0 / (float64(lag) * float64(hopSize) / sr)
		weight := math.Exp(-0.5 * math.Pow((bpmApprox-120.0)/40.0, 2))
		if weighted := corr * (0.8 + 0.2*weight); weighted > bestCorr {
			bestCorr = weighted
			bestLag = lag
		}
	}

	period := float64(bestLag) * float64(hopSize) / sr
	if period <= 0 {
		return 0, nil, errors.New("degenerate beat period")
	}
	bpm := 60.0 / period
	for bpm > 200 {
		bpm /= 2
	}
	for bpm < 60 {
		bpm *= 2
	}
	bpm = math.Round(bpm*10) / 10

	return bpm, beatGrid(env, sig, bpm), nil
}

// beatGrid generates tick times at the beat period, phase-anchored on
// the strongest onset within the first five seconds.
func beatGrid(env []float64, sig analysis.Signal, bpm float64) []float64 {
	period := 60.0 / bpm
	frameTime := float64(hopSize) / float64(sig.SampleRate)

	searchFrames := int(5.0 / frameTime)
	if searchFrames > len(env) {
		searchFrames = len(env)
	}
	anchorIdx, anchorVal := 0, 0.0
	for i := 0; i < searchFrames; i++ {
		if env[i] > anchorVal {
			anchorVal = env[i]
			anchorIdx = i
		}
	}
	anchor := float64(anchorIdx) * frameTime

	var ticks []float64
	for t := anchor; t >= 0; t -= period {
		ticks = append(ticks, t)
	}
	for t := anchor + period; t < sig.Duration; t += period {
		ticks = append(ticks, t)
	}
	sort.Float64s(ticks)
	return ticks
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
