package processor

import "math"

// BandMapper is the legacy per-band mapper: averaged band energy above a
// noise floor, a dynamic peak envelope and power-law shaping.
type BandMapper struct {
	lo, hi int
	peak   float64
}

// NewBandMapper returns a mapper over bins [lo, hi] inclusive
func NewBandMapper(band Band) *BandMapper {
	return &BandMapper{lo: band.Low, hi: band.High, peak: initialPeakValue}
}

// Update returns the shaped ratio for spectrum and the band occupancy accent.
// The ratio is not clamped: it approaches or exceeds 1 near the running peak.
func (m *BandMapper) Update(spectrum []uint8) (ratio, accent float64) {
	lo, hi := m.lo, m.hi
	if hi >= len(spectrum) {
		hi = len(spectrum) - 1
	}

	var avg float64
	if hi >= lo && lo >= 0 {
		var sum float64
		for i := lo; i <= hi; i++ {
			sum += float64(spectrum[i])
		}
		avg = sum / float64(hi-lo+1)
	}
	avg = math.Max(0, avg-bandNoiseFloor)

	if avg > m.peak {
		m.peak += (avg - m.peak) * bandPeakRise
	} else {
		m.peak *= bandPeakDecay
	}

	ratio = math.Pow(avg/math.Max(m.peak, bandPeakFloor), bandRatioPower)
	accent = m.peak / (fullScale - bandNoiseFloor)
	return ratio, accent
}

// Peak returns the current envelope peak
func (m *BandMapper) Peak() float64 { return m.peak }
