package analysis

import (
	"fmt"
	"strings"

	"github.com/keagan/beatgrid/pkg/util"
)

// Summary renders a one-line human-readable report over the result's type
// counts, e.g. "142 sync points over 03:24 at 128.0 BPM (drop: 9, ...)".
func Summary(r *Result) string {
	counts := make(map[SyncPointType]int)
	for _, p := range r.SyncPoints {
		counts[p.Type]++
	}

	line := fmt.Sprintf("%d sync points over %s", len(r.SyncPoints), util.FormatSeconds(r.Duration))
	if r.EstimatedTempo != nil {
		line += fmt.Sprintf(" at %.1f BPM", *r.EstimatedTempo)
	}

	var parts []string
	for _, typ := range AllTypes {
		if n := counts[typ]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", typ, n))
		}
	}
	if len(parts) > 0 {
		line += " (" + strings.Join(parts, ", ") + ")"
	}
	return line
}

// TypeColor maps every sync point type to a display token. Total over the
// closed enum; unknown values fall back to the hit color.
func TypeColor(t SyncPointType) string {
	switch t {
	case TypeDrop:
		return "#FF3B30"
	case TypeBass:
		return "#FF9500"
	case TypeSnare:
		return "#FFCC00"
	case TypeBuild:
		return "#AF52DE"
	case TypePause:
		return "#8E8E93"
	case TypeResume:
		return "#34C759"
	case TypeChorus:
		return "#FF2D55"
	case TypeVerse:
		return "#5AC8FA"
	case TypeTransition:
		return "#5856D6"
	case TypeVocal:
		return "#00C7BE"
	default:
		return "#FFFFFF"
	}
}
