package analysis

import (
	"errors"
	"fmt"
	"math"
)

var errNoProvider = errors.New("no feature provider configured")

// candidateList accumulates raw sync point candidates across passes.
type candidateList struct {
	points []SyncPoint
}

func (l *candidateList) add(p SyncPoint) {
	l.points = append(l.points, p)
}

// anyWithin reports whether an accumulated candidate lies within window
// seconds of t. Linear scan; candidate density stays low enough that a
// sorted structure has not been worth it.
func (l *candidateList) anyWithin(t, window float64) bool {
	for _, p := range l.points {
		if math.Abs(p.Time-t) < window {
			return true
		}
	}
	return false
}

// passContext is the shared per-call state the detector passes read and
// append to. Nothing in it survives the analysis call.
type passContext struct {
	signal   Signal
	preset   Preset
	provider FeatureProvider
	energy   *featureSet // 2048/1024, energy-oriented passes
	cls      *classifier // classification over the finer 2048/512 geometry
	cand     *candidateList
	degraded bool // no usable spectral features; relaxed silence rules
	tempo    *float64
}

type detectorPass struct {
	name string
	run  func(*passContext) error
}

// detectorPasses returns the fixed pass order. Each pass is independent
// and best-effort: the runner skips failures and always continues.
func detectorPasses() []detectorPass {
	return []detectorPass{
		{"tempo", runTempoPass},
		{"onset", runOnsetPass},
		{"energy-peak", runEnergyPeakPass},
		{"segment", runSegmentPass},
		{"pause-resume", runPausePass},
		{"build", runBuildPass},
	}
}

// runPass isolates a single detector: a panic inside one pass becomes an
// error for the runner instead of taking down the others.
func runPass(p detectorPass, ctx *passContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pass panicked: %v", r)
		}
	}()
	return p.run(ctx)
}

// runTempoPass classifies externally supplied beat ticks and records the
// BPM estimate.
func runTempoPass(ctx *passContext) error {
	if ctx.provider == nil {
		return errNoProvider
	}
	bpm, ticks, err := ctx.provider.TempoAndTicks(ctx.signal)
	if err != nil {
		return fmt.Errorf("tempo extraction: %w", err)
	}
	if bpm > 0 {
		ctx.tempo = &bpm
	}
	for _, tick := range ticks {
		if tick < 0 || tick >= ctx.signal.Duration {
			continue
		}
		typ, intensity := ctx.cls.classify(tick, -1)
		ctx.cand.add(SyncPoint{Time: tick, Type: typ, Intensity: intensity})
	}
	return nil
}

// runOnsetPass classifies transient times from the onset detector, or
// from locally computed energy peaks when none is available.
func runOnsetPass(ctx *passContext) error {
	var onsets []float64
	if ctx.provider != nil {
		if times, err := ctx.provider.OnsetTimes(ctx.signal); err == nil {
			onsets = times
		}
	}
	if onsets == nil {
		onsets = localOnsets(ctx.energy, ctx.preset)
	}

	window := ctx.preset.OnsetDedup.Seconds()
	for _, t := range onsets {
		if t < 0 || t >= ctx.signal.Duration {
			continue
		}
		if ctx.cand.anyWithin(t, window) {
			continue
		}
		typ, intensity := ctx.cls.classify(t, -1)
		ctx.cand.add(SyncPoint{Time: t, Type: typ, Intensity: intensity})
	}
	return nil
}

// localOnsets derives transient times from energy peaks.
func localOnsets(fs *featureSet, preset Preset) []float64 {
	energies := fs.energies()
	if len(energies) < 5 {
		return nil
	}
	threshold := percentile(energies, preset.EnergyThreshold)
	peaks := peakFrames(energies, threshold)
	times := make([]float64, 0, len(peaks))
	for _, i := range peaks {
		times = append(times, fs.timeOf(i))
	}
	return times
}

// peakFrames returns indexes of frames above threshold that strictly
// exceed their two neighbors on each side. The first and last two frames
// have no full neighborhood and are excluded.
func peakFrames(energies []float64, threshold float64) []int {
	var peaks []int
	for i := 2; i < len(energies)-2; i++ {
		e := energies[i]
		if e <= threshold {
			continue
		}
		if e > energies[i-1] && e > energies[i-2] && e > energies[i+1] && e > energies[i+2] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// runEnergyPeakPass emits drops and classified hits at local energy
// maxima above the preset's percentile threshold.
func runEnergyPeakPass(ctx *passContext) error {
	energies := ctx.energy.energies()
	if len(energies) < 5 {
		return errors.New("too few frames for peak detection")
	}

	threshold := percentile(energies, ctx.preset.EnergyThreshold)
	mean := meanFloat(energies)
	max := ctx.energy.maxEnergy
	window := ctx.preset.EnergyDedup.Seconds()

	for _, i := range peakFrames(energies, threshold) {
		t := ctx.energy.timeOf(i)
		if ctx.cand.anyWithin(t, window) {
			continue
		}

		intensity := 0.5
		if max > mean {
			intensity = clamp01((energies[i] - mean) / (max - mean))
		}

		// A near-maximal peak is a drop regardless of what the
		// classifier would call it.
		typ := TypeDrop
		pointIntensity := intensity
		if intensity <= 0.85 {
			typ, pointIntensity = ctx.cls.classify(t, intensity)
		}
		ctx.cand.add(SyncPoint{Time: t, Type: typ, Intensity: pointIntensity})
	}
	return nil
}

// runSegmentPass emits chorus/verse markers at section transitions,
// using 4-second windows with 50% overlap binary-classified against the
// median window energy.
func runSegmentPass(ctx *passContext) error {
	fs := ctx.energy
	windowFrames := int(4.0 * float64(fs.sampleRate) / float64(fs.hopSize))
	if windowFrames < 1 || len(fs.frames) < windowFrames {
		return errors.New("track too short for segmentation")
	}

	energies := fs.energies()
	step := windowFrames / 2
	var starts []int
	var averages []float64
	for start := 0; start+windowFrames <= len(energies); start += step {
		starts = append(starts, start)
		averages = append(averages, meanFloat(energies[start:start+windowFrames]))
	}
	if len(averages) < 2 {
		return errors.New("track too short for segmentation")
	}

	median := medianFloat(averages)
	isChorus := func(avg float64) bool { return avg > 1.1*median }

	prev := isChorus(averages[0])
	for w := 1; w < len(averages); w++ {
		cur := isChorus(averages[w])
		if cur == prev {
			continue
		}
		prev = cur

		t := fs.timeOf(starts[w])
		if t == 0 || ctx.cand.anyWithin(t, 1.0) {
			continue
		}
		if cur {
			ctx.cand.add(SyncPoint{Time: t, Type: TypeChorus, Intensity: 0.85})
		} else {
			ctx.cand.add(SyncPoint{Time: t, Type: TypeVerse, Intensity: 0.6})
		}
	}
	return nil
}

// runPausePass emits pause/resume pairs around silence runs.
func runPausePass(ctx *passContext) error {
	fs := ctx.energy
	energies := fs.energies()
	if len(energies) == 0 {
		return errors.New("no frames for silence detection")
	}

	factor, minRun := 0.1, 0.15
	if ctx.degraded {
		factor, minRun = 0.15, 0.1
	}
	threshold := meanFloat(energies) * factor
	const dedup = 0.1

	flush := func(startIdx, endIdx int) {
		startT := fs.timeOf(startIdx)
		endT := fs.timeOf(endIdx)
		if endT-startT < minRun {
			return
		}
		if !ctx.cand.anyWithin(startT, dedup) {
			ctx.cand.add(SyncPoint{Time: startT, Type: TypePause, Intensity: 0.6})
		}
		if endT < ctx.signal.Duration && !ctx.cand.anyWithin(endT, dedup) {
			ctx.cand.add(SyncPoint{Time: endT, Type: TypeResume, Intensity: 0.9})
		}
	}

	runStart := -1
	for i, e := range energies {
		if e < threshold {
			if runStart < 0 {
				runStart = i
			}
		} else if runStart >= 0 {
			flush(runStart, i)
			runStart = -1
		}
	}
	if runStart >= 0 {
		flush(runStart, len(energies)-1)
	}
	return nil
}

// runBuildPass emits build markers where the trailing half second is
// substantially louder than the leading half second.
func runBuildPass(ctx *passContext) error {
	fs := ctx.energy
	w := int(0.5 * float64(fs.sampleRate) / float64(fs.hopSize))
	if w < 1 || len(fs.frames) < 2*w {
		return errors.New("track too short for build detection")
	}

	energies := fs.energies()
	const eps = 1e-9
	for i := w; i+w <= len(energies); i++ {
		before := meanFloat(energies[i-w : i])
		after := meanFloat(energies[i : i+w])
		ratio := after / (before + eps)
		if ratio <= 1.6 {
			continue
		}
		t := fs.timeOf(i)
		if ctx.cand.anyWithin(t, 0.5) {
			continue
		}
		ctx.cand.add(SyncPoint{Time: t, Type: TypeBuild, Intensity: clamp01((ratio - 1) / 1.5)})
	}
	return nil
}
