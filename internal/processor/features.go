package processor

import "math"

// Feature names a spectral descriptor a control can follow
type Feature string

// Spectral descriptors produced by FeatureExtractor
const (
	FeatureIntensity  Feature = "intensity"  // spectral centroid / N
	FeatureSpeed      Feature = "speed"      // spectral flatness
	FeatureComplexity Feature = "complexity" // low-passed spectral flux
)

// Valid reports whether f is a known descriptor
func (f Feature) Valid() bool {
	switch f {
	case FeatureIntensity, FeatureSpeed, FeatureComplexity:
		return true
	}
	return false
}

// Features holds the three descriptors for one spectrum snapshot.
// Each is in its natural, uncalibrated range.
type Features struct {
	Intensity  float64
	Speed      float64
	Complexity float64
}

// Get returns the descriptor named by f, or 0 for an unknown name
func (fs Features) Get(f Feature) float64 {
	switch f {
	case FeatureIntensity:
		return fs.Intensity
	case FeatureSpeed:
		return fs.Speed
	case FeatureComplexity:
		return fs.Complexity
	}
	return 0
}

// FeatureExtractor computes spectral descriptors frame by frame.
// It keeps the previous snapshot for flux and a private low-pass on
// complexity, independent of the parameter smoother.
type FeatureExtractor struct {
	prev           []uint8
	lastComplexity float64
}

// NewFeatureExtractor returns an extractor with an empty history
func NewFeatureExtractor() *FeatureExtractor {
	return &FeatureExtractor{}
}

// Extract computes intensity, speed and complexity for spectrum and then
// stores spectrum as the previous frame.
func (e *FeatureExtractor) Extract(spectrum []uint8) Features {
	n := len(spectrum)
	if n == 0 {
		return Features{Complexity: e.lastComplexity}
	}
	if len(e.prev) != n {
		e.prev = make([]uint8, n)
	}

	var (
		weightedSum float64
		sum         float64
		sumLog      float64
		flux        float64
	)
	for i, b := range spectrum {
		v := float64(b)
		weightedSum += float64(i) * v
		sum += v
		sumLog += math.Log(math.Max(v, flatnessFloor))
		if diff := v - float64(e.prev[i]); diff > 0 {
			flux += diff
		}
	}
	copy(e.prev, spectrum)

	var f Features

	// Spectral centroid, normalised by bin count
	if sum > 0 {
		f.Intensity = weightedSum / sum / float64(n)
	}

	// Spectral flatness: geometric mean over arithmetic mean
	if am := sum / float64(n); am > 0 {
		gm := math.Exp(sumLog / float64(n))
		f.Speed = gm / am
	}

	// Spectral flux, square-rooted for perceptual spread, then low-passed
	raw := math.Min(flux/(float64(n)*fluxScale), 1.0)
	processed := math.Sqrt(raw)
	e.lastComplexity = e.lastComplexity*(1-complexityLowPass) + processed*complexityLowPass
	f.Complexity = e.lastComplexity

	return f
}

// Reset clears the previous frame and the complexity low-pass
func (e *FeatureExtractor) Reset() {
	e.prev = nil
	e.lastComplexity = 0
}
