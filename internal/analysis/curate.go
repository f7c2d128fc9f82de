package analysis

import (
	"math"
	"sort"
)

// fillerIntensity sits below any organically detected point so synthetic
// fillers never outrank real hits downstream.
const fillerIntensity = 0.35

// curate turns the unsorted candidate accumulator into the final,
// temporally well-behaved sequence: sort, merge, density selection with
// must-keep rules, then gap filling.
func curate(cands []SyncPoint, preset Preset, duration float64) []SyncPoint {
	sorted := make([]SyncPoint, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	merged := mergeNearby(sorted, preset.OnsetDedup.Seconds())

	// Degenerate track: too little signal to curate, space points evenly.
	if len(merged) < 2 {
		return uniformPoints(preset, duration)
	}

	selected := selectByDensity(merged, targetCount(preset, duration), preset.mustKeepThreshold())
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Time < selected[j].Time })

	return fillGaps(selected, duration, preset.MaxGap)
}

// mergeNearby collapses time-sorted candidates closer than tol seconds
// into one, keeping the higher-intensity candidate. Ties keep the
// earlier-seen one. This pass defines the minimum spacing invariant for
// everything except must-keep carve-outs.
func mergeNearby(sorted []SyncPoint, tol float64) []SyncPoint {
	if len(sorted) == 0 {
		return nil
	}
	merged := make([]SyncPoint, 0, len(sorted))
	for _, c := range sorted {
		if len(merged) > 0 {
			last := &merged[len(merged)-1]
			if c.Time-last.Time < tol {
				if c.Intensity > last.Intensity {
					*last = c
				}
				continue
			}
		}
		merged = append(merged, c)
	}
	return merged
}

// targetCount is floor(duration*densityMin) clamped to at least 20 points
// and at most floor(duration*densityMax).
func targetCount(preset Preset, duration float64) int {
	target := int(duration * preset.DensityMin)
	if target < 20 {
		target = 20
	}
	if ceil := int(duration * preset.DensityMax); ceil >= 20 && target > ceil {
		target = ceil
	}
	return target
}

// selectByDensity retains every must-keep point (drop/resume type or
// intensity above thr) unconditionally, then fills the remaining budget
// with the most intense of the rest. Must-keeps are never truncated even
// when they alone exceed the target.
func selectByDensity(points []SyncPoint, target int, thr float64) []SyncPoint {
	var mustKeep, others []SyncPoint
	for _, p := range points {
		if p.Type == TypeDrop || p.Type == TypeResume || p.Intensity > thr {
			mustKeep = append(mustKeep, p)
		} else {
			others = append(others, p)
		}
	}

	sort.SliceStable(others, func(i, j int) bool { return others[i].Intensity > others[j].Intensity })

	selected := mustKeep
	if remaining := target - len(mustKeep); remaining > 0 {
		if remaining > len(others) {
			remaining = len(others)
		}
		selected = append(selected, others[:remaining]...)
	}
	return selected
}

// fillGaps inserts evenly spaced synthetic hits wherever consecutive
// points, or the gaps to the 0 and duration boundaries, exceed maxGap.
func fillGaps(sorted []SyncPoint, duration, maxGap float64) []SyncPoint {
	const eps = 1e-6
	out := make([]SyncPoint, 0, len(sorted))

	emit := func(from, to float64) {
		gap := to - from
		if gap <= maxGap+eps {
			return
		}
		n := int(math.Ceil(gap/maxGap)) - 1
		step := gap / float64(n+1)
		for k := 1; k <= n; k++ {
			out = append(out, SyncPoint{Time: from + float64(k)*step, Type: TypeHit, Intensity: fillerIntensity})
		}
	}

	prev := 0.0
	for _, p := range sorted {
		emit(prev, p.Time)
		out = append(out, p)
		prev = p.Time
	}
	emit(prev, duration)
	return out
}

// uniformPoints is the fallback for near-silent or extremely short
// tracks: hits spaced at the inverse of the preset's mid density.
func uniformPoints(preset Preset, duration float64) []SyncPoint {
	interval := 1.0 / ((preset.DensityMin + preset.DensityMax) / 2)
	var points []SyncPoint
	for t := interval; t < duration; t += interval {
		points = append(points, SyncPoint{Time: t, Type: TypeHit, Intensity: fillerIntensity})
	}
	return points
}
