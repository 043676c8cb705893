package audio

import (
	"math"
	"time"
)

// Synth defaults
const (
	DefaultSynthBPM  = 120.0
	DefaultSynthRate = 44100

	kickFreq   = 55.0 // Hz
	kickDecay  = 0.05 // seconds
	kickLevel  = 0.8
	bedLevel   = 0.04
	noiseLevel = 0.01
	driftRate  = 0.25 // Hz, slow swell of the bed partials
	driftDepth = 0.5
)

// bedPartials are the base frequencies of the tonal bed
var bedPartials = [...]float64{440, 1320, 2970, 6100}

// Synth is a deterministic test signal: a decaying bass kick on every beat
// over a quiet, slowly swelling tonal bed with a little hashed noise. The
// same position always yields the same samples.
type Synth struct {
	BPM  float64
	Rate int
}

// NewSynth returns a synth at the given tempo, falling back to defaults
func NewSynth(bpm float64) *Synth {
	if bpm <= 0 || math.IsNaN(bpm) {
		bpm = DefaultSynthBPM
	}
	return &Synth{BPM: bpm, Rate: DefaultSynthRate}
}

// SampleRate returns the synth's sample rate
func (s *Synth) SampleRate() int {
	if s.Rate <= 0 {
		return DefaultSynthRate
	}
	return s.Rate
}

// Window returns the n samples ending at pos
func (s *Synth) Window(pos time.Duration, n int) []float64 {
	out := make([]float64, n)
	if n <= 0 {
		return out
	}
	rate := s.SampleRate()
	end := int64(pos.Seconds() * float64(rate))
	for i := range out {
		idx := end - int64(n) + 1 + int64(i)
		if idx < 0 {
			continue
		}
		out[i] = s.sample(idx, rate)
	}
	return out
}

// sample returns the signal at absolute sample index idx
func (s *Synth) sample(idx int64, rate int) float64 {
	t := float64(idx) / float64(rate)

	period := 60 / s.BPM
	phase := math.Mod(t, period)
	kick := kickLevel * math.Exp(-phase/kickDecay) * math.Sin(2*math.Pi*kickFreq*phase)

	var bed float64
	for i, f := range bedPartials {
		swell := 1 + driftDepth*math.Sin(2*math.Pi*driftRate*t+float64(i))
		bed += swell * math.Sin(2*math.Pi*f*t) / float64(len(bedPartials))
	}

	return kick + bedLevel*bed + noiseLevel*hashNoise(uint64(idx))
}

// hashNoise maps an index to a repeatable value in [-1, 1) (splitmix64)
func hashNoise(x uint64) float64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return float64(x>>11)/float64(1<<53)*2 - 1
}
