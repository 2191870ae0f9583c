package outlier

import "github.com/BG-NOAA/sar-drift-converter/internal/domain"

// classifyAll assigns a fresh category to every observation from its stored
// z-scores and neighbor count. It runs over the whole slice, not just the
// pool: an observation frozen out in an earlier iteration is re-judged each
// pass against its last-computed scores, so a flag is re-derived rather than
// sticky state.
func classifyAll(obs []domain.Observation, zThreshold float64, minNeighbors int) {
	for i := range obs {
		o := &obs[i]

		// NaN z-scores compare false, so degenerate or empty neighborhoods
		// never flag.
		distOut := o.DistanceZ > zThreshold
		bearOut := o.BearingZ > zThreshold

		var reason domain.Reason
		switch {
		case distOut && bearOut:
			reason = domain.ReasonBoth
		case bearOut:
			reason = domain.ReasonBearing
		case distOut:
			reason = domain.ReasonDistance
		default:
			reason = domain.ReasonNone
		}

		conf := domain.LowConfidence
		if o.NeighborCount >= minNeighbors {
			conf = domain.HighConfidence
		}

		o.Category = domain.Category{Reason: reason, Confidence: conf}
	}
}
