package processor

import "math"

// RangeNormalizer maps an unbounded, drifting feature stream into [0,1]
// using a running min/max with asymmetric decay.
//
// The ceiling snaps to new peaks immediately but forgets stale peaks slowly,
// so a single loud passage cannot collapse the usable range for the rest of
// the session. The floor only ever creeps.
type RangeNormalizer struct {
	observedMin float64
	observedMax float64
	initialised bool
	peak        float64
}

// NewRangeNormalizer returns a normalizer that initialises on its first update
func NewRangeNormalizer() *RangeNormalizer {
	return &RangeNormalizer{peak: initialPeakValue}
}

// Update folds raw into the observed range (only when signal is present) and
// returns the shaped [0,1] target together with the decaying accent peak.
func (n *RangeNormalizer) Update(raw float64, signal bool) (shaped, peak float64) {
	raw = sanitizeFloat(raw, 0)
	if !n.initialised {
		n.observedMin = raw
		n.observedMax = raw
		n.initialised = true
	}

	if signal {
		n.observedMin = math.Min(n.observedMin, raw)*(1-rangeMinBlend) + raw*rangeMinBlend
		if raw > n.observedMax {
			n.observedMax = raw
		} else {
			n.observedMax = n.observedMax*(1-rangeMaxDecay) + raw*rangeMaxDecay
		}
	}

	normalized := rangeNeutral
	if r := n.observedMax - n.observedMin; r > rangeEpsilon {
		normalized = (raw - n.observedMin) / r
	}
	shaped = math.Min(math.Sqrt(math.Max(0, normalized)), 1)

	if shaped > n.peak {
		n.peak = shaped
	} else {
		n.peak *= shapedPeakDecay
	}
	return shaped, n.peak
}

// Min returns the observed floor
func (n *RangeNormalizer) Min() float64 { return n.observedMin }

// Max returns the observed ceiling
func (n *RangeNormalizer) Max() float64 { return n.observedMax }

// Peak returns the current accent peak
func (n *RangeNormalizer) Peak() float64 { return n.peak }
