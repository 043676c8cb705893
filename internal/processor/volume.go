package processor

import "math"

// VolumeReading is one frame of loudness output
type VolumeReading struct {
	Average     float64 // mean magnitude / 255
	Smoothed    float64 // smoothed volume with perceptual emphasis
	Last        float64 // Average of the previous frame
	Peak        float64 // max magnitude / 255, de-jittered
	MeterVolume float64 // bar height for the volume meter
	MeterPeak   float64 // bar height for the peak meter
}

// VolumeMeter computes aggregate loudness and peak per frame.
type VolumeMeter struct {
	smoothed float64
	last     float64
	lastPeak float64
}

// NewVolumeMeter returns a meter at silence
func NewVolumeMeter() *VolumeMeter {
	return &VolumeMeter{}
}

// Update measures spectrum and advances the smoothed volume
func (m *VolumeMeter) Update(spectrum []uint8) VolumeReading {
	var (
		sum  float64
		peak uint8
	)
	for _, v := range spectrum {
		sum += float64(v)
		if v > peak {
			peak = v
		}
	}

	var average float64
	if len(spectrum) > 0 {
		average = sum / float64(len(spectrum)) / fullScale
	}

	m.smoothed += (average - m.smoothed) * volumeSmoothing

	reportedPeak := m.dejitter(peak)

	r := VolumeReading{
		Average:     average,
		Smoothed:    math.Pow(m.smoothed, volumeEmphasis) * volumeEmphasis,
		Last:        m.last,
		Peak:        reportedPeak,
		MeterVolume: math.Sqrt(average * meterVolumeGain),
		MeterPeak:   math.Pow(reportedPeak, meterPeakPower),
	}

	m.last = average
	m.lastPeak = reportedPeak
	return r
}

// dejitter suppresses "stuck at max" flicker from clipped input. When the raw
// peak is full scale and the previous report sits on one of the decaying
// checkpoints, the report steps down instead of snapping back to 1.
func (m *VolumeMeter) dejitter(peak uint8) float64 {
	if peak == math.MaxUint8 {
		for i := 0; i < peakJitterChecks; i++ {
			checkpoint := 1 - peakJitterStep*float64(i)
			if math.Abs(m.lastPeak-checkpoint) < peakJitterTol {
				return m.lastPeak - peakJitterStep
			}
		}
	}
	return float64(peak) / fullScale
}
