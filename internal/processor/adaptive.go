// Package processor turns analyser spectrum snapshots into smoothed control
// parameters for a visual effect.
package processor

import (
	"math"
	"time"
)

// Adaptive tuning constants for the control pipeline.
// These factors and thresholds control how each stage reacts to the spectrum.
const (
	// Byte spectrum scale
	fullScale = 255.0 // analyser magnitude ceiling

	// Signal presence
	signalEnergyThreshold = 1.0 // total spectrum energy above this = signal present

	// Spectral features
	flatnessFloor     = 0.0001 // magnitudes floored before log in flatness
	fluxScale         = 8.0    // flux normalised by N × fluxScale
	complexityLowPass = 0.1    // weight of the new complexity sample

	// Adaptive range normaliser
	rangeMinBlend    = 0.001  // new-value weight for observed minimum
	rangeMaxDecay    = 0.005  // new-value weight when observed maximum decays
	rangeEpsilon     = 0.0001 // below this the range is treated as collapsed
	rangeNeutral     = 0.5    // normalised value for a collapsed range
	shapedPeakDecay  = 0.992  // per-update decay of the shaped accent peak
	initialPeakValue = 0.1    // starting accent peak for every control

	// Legacy band mapper
	bandNoiseFloor = 30.0  // subtracted from the band average
	bandPeakRise   = 0.2   // fast rise toward a louder band average
	bandPeakDecay  = 0.995 // slow decay when the band is quieter than peak
	bandPeakFloor  = 50.0  // ratio denominator never drops below this
	bandRatioPower = 1.5   // compressor-like shaping exponent

	// Smoothing factors used by the engine
	LegacySmoothing   = 0.1  // legacy band controls
	AdaptiveSmoothing = 0.15 // spectral shape controls

	// Volume meter
	volumeSmoothing  = 0.15  // smoothed volume follow rate
	volumeEmphasis   = 1.5   // exponent and gain of the emphasised volume
	meterVolumeGain  = 1.3   // meter bar: sqrt(avg × gain)
	meterPeakPower   = 3.0   // meter bar: peak³
	peakJitterStep   = 0.002 // decrement applied to a saturated repeat peak
	peakJitterChecks = 6     // checkpoints 1.0, 0.998 ... 0.990
	peakJitterTol    = 1e-9  // float tolerance when matching a checkpoint

	// Beat clock
	bassBins         = 3     // lowest bins averaged for bass energy
	bassThreshold    = 200.0 // bass average that counts as a hit
	pulseDecay       = 0.92  // per-tick decay of pulse energy
	pulseFloor       = 0.01  // pulse energy below this snaps to 0
	bpmQuantum       = 5.0   // locked BPM rounds to a multiple of this
	flashOpenness    = 0.01  // controls below 1% open never flash
	minBeatIntervalS = 0.3
	maxBeatIntervalS = 1.0

	// Shader clock
	clockBaseStep  = 0.01 // advance per tick with speed at 0
	clockSpeedGain = 0.02 // extra advance per unit of speed
)

const (
	minBeatInterval = time.Duration(minBeatIntervalS * float64(time.Second))
	maxBeatInterval = time.Duration(maxBeatIntervalS * float64(time.Second))
)

// sanitizeFloat returns defaultVal if val is NaN or Inf
func sanitizeFloat(val, defaultVal float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return defaultVal
	}
	return val
}

// clamp restricts val to the range [min, max]
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// totalEnergy sums the spectrum magnitudes
func totalEnergy(spectrum []uint8) float64 {
	var sum float64
	for _, v := range spectrum {
		sum += float64(v)
	}
	return sum
}

// HasSignal reports whether the snapshot carries enough energy to update
// adaptive ranges.
func HasSignal(spectrum []uint8) bool {
	return totalEnergy(spectrum) > signalEnergyThreshold
}
