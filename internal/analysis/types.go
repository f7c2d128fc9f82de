package analysis

// SyncPointType classifies the musical significance of a sync point.
type SyncPointType string

const (
	TypeDrop   SyncPointType = "drop"
	TypeBass   SyncPointType = "bass"
	TypeSnare  SyncPointType = "snare"
	TypeHit    SyncPointType = "hit"
	TypeBuild  SyncPointType = "build"
	TypePause  SyncPointType = "pause"
	TypeResume SyncPointType = "resume"
	TypeChorus SyncPointType = "chorus"
	TypeVerse  SyncPointType = "verse"

	// Reserved for future detectors.
	TypeTransition SyncPointType = "transition"
	TypeVocal      SyncPointType = "vocal"
)

// AllTypes lists every sync point type in display order.
var AllTypes = []SyncPointType{
	TypeDrop, TypeBass, TypeSnare, TypeHit, TypeBuild,
	TypePause, TypeResume, TypeChorus, TypeVerse,
	TypeTransition, TypeVocal,
}

// SyncPoint marks a musically meaningful moment in the track.
// Time is in seconds from track start, Intensity is in [0,1].
type SyncPoint struct {
	Time      float64       `json:"time"`
	Type      SyncPointType `json:"type"`
	Intensity float64       `json:"intensity"`
}

// Signal is a single-channel waveform owned by one analysis call.
// Samples are normalized to [-1,1].
type Signal struct {
	SampleRate int
	Samples    []float64
	Duration   float64
}

// NewSignal wraps samples with their rate and derived duration.
func NewSignal(sampleRate int, samples []float64) Signal {
	var duration float64
	if sampleRate > 0 {
		duration = float64(len(samples)) / float64(sampleRate)
	}
	return Signal{
		SampleRate: sampleRate,
		Samples:    samples,
		Duration:   duration,
	}
}

// Result holds the final sync point sequence for one track.
type Result struct {
	SyncPoints     []SyncPoint `json:"sync_points"`
	Duration       float64     `json:"duration"`
	EstimatedTempo *float64    `json:"estimated_tempo,omitempty"`
	AverageEnergy  float64     `json:"average_energy"`

	// SkippedPasses names detector passes that failed and were skipped.
	SkippedPasses []string `json:"skipped_passes,omitempty"`
}
