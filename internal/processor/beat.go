package processor

import (
	"math"
	"time"
)

// BeatState is the tempo-lock state of a BeatClock
type BeatState int

const (
	// BeatDetecting waits for two bass hits to measure an interval
	BeatDetecting BeatState = iota
	// BeatLocked pulses on a fixed interval until reset
	BeatLocked
)

func (s BeatState) String() string {
	switch s {
	case BeatLocked:
		return "locked"
	default:
		return "detecting"
	}
}

// BeatClock produces a decaying pulse locked to the first measured tempo.
//
// While detecting, bass hits above threshold fire pulses; the second hit
// fixes the interval (clamped to 300-1000 ms, quantised to 5 BPM) and the
// clock then free-runs on it until Reset, e.g. on a track change.
type BeatClock struct {
	state     BeatState
	interval  time.Duration
	bpm       float64
	lastPulse time.Time
	pulse     float64
}

// NewBeatClock returns a clock in the detecting state
func NewBeatClock() *BeatClock {
	return &BeatClock{}
}

// Tick advances the clock to now using spectrum for bass detection and
// returns the pulse energy after this frame's decay.
func (c *BeatClock) Tick(spectrum []uint8, now time.Time) float64 {
	switch c.state {
	case BeatDetecting:
		if bassAverage(spectrum) > bassThreshold && c.sinceLast(now) > minBeatInterval {
			if !c.lastPulse.IsZero() {
				c.lock(now.Sub(c.lastPulse))
			}
			c.fire(now)
		}
	case BeatLocked:
		if now.Sub(c.lastPulse) >= c.interval {
			c.fire(now)
		}
	}

	c.pulse *= pulseDecay
	if c.pulse < pulseFloor {
		c.pulse = 0
	}
	return c.pulse
}

func (c *BeatClock) sinceLast(now time.Time) time.Duration {
	if c.lastPulse.IsZero() {
		return math.MaxInt64
	}
	return now.Sub(c.lastPulse)
}

func (c *BeatClock) fire(now time.Time) {
	c.lastPulse = now
	c.pulse = 1.0
}

// lock quantises interval to a BPM multiple of 5 and switches to locked
func (c *BeatClock) lock(interval time.Duration) {
	interval = clampDuration(interval, minBeatInterval, maxBeatInterval)
	ms := float64(interval) / float64(time.Millisecond)
	c.bpm = math.Round(60000/ms/bpmQuantum) * bpmQuantum
	c.interval = time.Duration(60000 / c.bpm * float64(time.Millisecond))
	c.state = BeatLocked
}

// Reset returns to detecting with no pulse history, as on a track change
func (c *BeatClock) Reset() {
	c.state = BeatDetecting
	c.lastPulse = time.Time{}
	c.interval = 0
	c.bpm = 0
}

// State returns the current lock state
func (c *BeatClock) State() BeatState { return c.state }

// Interval returns the locked beat interval, 0 until locked
func (c *BeatClock) Interval() time.Duration { return c.interval }

// BPM returns the locked tempo, 0 until locked
func (c *BeatClock) BPM() float64 { return c.bpm }

// Pulse returns the current pulse energy
func (c *BeatClock) Pulse() float64 { return c.pulse }

func bassAverage(spectrum []uint8) float64 {
	n := bassBins
	if len(spectrum) < n {
		n = len(spectrum)
	}
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range spectrum[:n] {
		sum += float64(v)
	}
	return sum / float64(n)
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}
