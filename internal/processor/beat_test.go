package processor

import (
	"testing"
	"time"
)

func TestBeatClockLocksAt120(t *testing.T) {
	c := NewBeatClock()
	quiet := make([]uint8, 128)

	// Priming hit, then hits every 500ms with quiet frames between
	for ms := 0; ms <= 2000; ms += 50 {
		s := quiet
		if ms%500 == 0 {
			s = bassHit()
		}
		c.Tick(s, at(ms))
	}

	if c.State() != BeatLocked {
		t.Fatalf("State = %v, want locked", c.State())
	}
	if c.Interval() != 500*time.Millisecond {
		t.Errorf("Interval = %v, want 500ms", c.Interval())
	}
	if c.BPM() != 120 {
		t.Errorf("BPM = %v, want 120", c.BPM())
	}
}

func TestBeatClockIntervalClamp(t *testing.T) {
	tests := []struct {
		name         string
		gap          time.Duration
		wantInterval time.Duration
		wantBPM      float64
	}{
		// lock is driven directly: Tick never accepts hits under 300ms apart
		{"50ms clamps to 300ms", 50 * time.Millisecond, 300 * time.Millisecond, 200},
		{"5000ms clamps to 1000ms", 5000 * time.Millisecond, 1000 * time.Millisecond, 60},
		{"428ms quantises to 140bpm", 428 * time.Millisecond, intervalFor(140), 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBeatClock()
			c.lock(tt.gap)
			if c.Interval() != tt.wantInterval {
				t.Errorf("Interval = %v, want %v", c.Interval(), tt.wantInterval)
			}
			if c.BPM() != tt.wantBPM {
				t.Errorf("BPM = %v, want %v", c.BPM(), tt.wantBPM)
			}
		})
	}
}

// intervalFor mirrors the interval derived from a quantised tempo
func intervalFor(bpm float64) time.Duration {
	return time.Duration(60000 / bpm * float64(time.Millisecond))
}

func TestBeatClockSlowHitsClampThroughTick(t *testing.T) {
	c := NewBeatClock()
	c.Tick(bassHit(), at(0))
	c.Tick(bassHit(), at(5000))
	if c.State() != BeatLocked || c.Interval() != time.Second {
		t.Errorf("after 5s gap: State = %v, Interval = %v, want locked at 1s", c.State(), c.Interval())
	}
}

func TestBeatClockRefractoryWindow(t *testing.T) {
	c := NewBeatClock()
	c.Tick(bassHit(), at(0))
	c.Tick(bassHit(), at(50))
	c.Tick(bassHit(), at(300)) // exactly 300ms is not enough
	if c.State() != BeatDetecting {
		t.Fatalf("State = %v, want detecting inside refractory window", c.State())
	}
	c.Tick(bassHit(), at(301))
	if c.State() != BeatLocked {
		t.Fatalf("State = %v, want locked", c.State())
	}
	if c.Interval() < minBeatInterval || c.Interval() > maxBeatInterval {
		t.Errorf("Interval = %v outside [300ms, 1s]", c.Interval())
	}
}

func TestBeatClockPulseDecay(t *testing.T) {
	c := NewBeatClock()
	p := c.Tick(bassHit(), at(1000))
	if p != pulseDecay {
		t.Fatalf("pulse after hit = %v, want %v", p, pulseDecay)
	}

	quiet := make([]uint8, 128)
	for i := 1; i < 100; i++ {
		p = c.Tick(quiet, at(1000+i*16))
	}
	if p != 0 {
		t.Errorf("pulse after long decay = %v, want snapped to 0", p)
	}
}

func TestBeatClockLockedFreeRuns(t *testing.T) {
	c := NewBeatClock()
	c.Tick(bassHit(), at(0))
	c.Tick(bassHit(), at(500))

	// No more bass: the locked clock keeps firing on its interval
	quiet := make([]uint8, 128)
	fired := 0
	for ms := 516; ms <= 3000; ms += 4 {
		before := c.Pulse()
		if p := c.Tick(quiet, at(ms)); p > before {
			fired++
		}
	}
	if fired != 5 {
		t.Errorf("locked pulses in 2.5s = %d, want 5", fired)
	}
}

func TestBeatClockReset(t *testing.T) {
	c := NewBeatClock()
	c.Tick(bassHit(), at(0))
	c.Tick(bassHit(), at(500))
	c.Reset()

	if c.State() != BeatDetecting || c.Interval() != 0 || c.BPM() != 0 {
		t.Fatalf("after Reset: State = %v, Interval = %v, BPM = %v", c.State(), c.Interval(), c.BPM())
	}

	// First hit after reset only primes
	c.Tick(bassHit(), at(10000))
	if c.State() != BeatDetecting {
		t.Errorf("State after priming hit = %v, want detecting", c.State())
	}
}
