// Package analysis turns a decoded waveform into an ordered set of sync
// points: timestamps classified by musical significance with a continuous
// intensity, intended to drive beat-synchronized video cut placement.
package analysis

import (
	"fmt"

	"github.com/rs/zerolog"
)

// FeatureProvider supplies optional DSP features: tempo and beat ticks,
// onset times, and per-frame magnitude spectra. Any method may fail
// independently; the analyzer degrades to energy-only heuristics instead
// of aborting. A nil provider disables all three.
type FeatureProvider interface {
	TempoAndTicks(sig Signal) (bpm float64, ticks []float64, err error)
	OnsetTimes(sig Signal) ([]float64, error)
	Spectrum(frame []float64) ([]float64, error)
}

// Analyzer runs the full detection and curation pipeline. It holds no
// per-call state: concurrent Analyze calls on different signals are
// independent.
type Analyzer struct {
	logger   zerolog.Logger
	provider FeatureProvider
}

// New creates an analyzer. The provider lifecycle belongs to the caller;
// pass nil to run on energy heuristics alone.
func New(logger zerolog.Logger, provider FeatureProvider) *Analyzer {
	return &Analyzer{
		logger:   logger.With().Str("component", "analyzer").Logger(),
		provider: provider,
	}
}

// Analyze produces the sync point sequence for one signal under one
// preset. It fails only for invalid presets or signals; imperfect audio
// yields a sparser or uniformly filled result, never an error.
func (a *Analyzer) Analyze(sig Signal, preset Preset) (*Result, error) {
	if err := preset.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preset: %w", err)
	}
	if sig.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid signal: sample rate %d", sig.SampleRate)
	}

	a.logger.Debug().
		Str("preset", preset.Name).
		Float64("duration", sig.Duration).
		Int("samples", len(sig.Samples)).
		Msg("starting analysis")

	energy := extractFeatures(sig, defaultFrameSize, energyHopSize, nil)
	spectral := extractFeatures(sig, defaultFrameSize, classifyHopSize, a.provider)

	ctx := &passContext{
		signal:   sig,
		preset:   preset,
		provider: a.provider,
		energy:   energy,
		cls:      newClassifier(spectral),
		cand:     &candidateList{},
		degraded: !spectral.hasSpectral(),
	}

	var skipped []string
	for _, pass := range detectorPasses() {
		if err := runPass(pass, ctx); err != nil {
			a.logger.Warn().Err(err).Str("pass", pass.name).Msg("detector pass skipped")
			skipped = append(skipped, pass.name)
		}
	}

	a.logger.Debug().
		Int("candidates", len(ctx.cand.points)).
		Bool("degraded", ctx.degraded).
		Msg("detector passes complete")

	points := curate(ctx.cand.points, preset, sig.Duration)

	result := &Result{
		SyncPoints:     points,
		Duration:       sig.Duration,
		EstimatedTempo: ctx.tempo,
		AverageEnergy:  meanFloat(energy.energies()),
		SkippedPasses:  skipped,
	}

	a.logger.Info().
		Int("sync_points", len(points)).
		Str("preset", preset.Name).
		Msg("analysis complete")

	return result, nil
}
