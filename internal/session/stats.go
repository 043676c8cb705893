package session

import (
	"math"
	"sync"
	"time"

	"github.com/allapse/feel/internal/processor"
)

// ControlStats summarises one control over a session
type ControlStats struct {
	Key        string
	Min        float64
	Max        float64
	Mean       float64
	Overridden int // frames spent under manual override
}

// Summary is a point-in-time copy of the session statistics
type Summary struct {
	Started      time.Time
	Elapsed      time.Duration
	Frames       int
	LockedFrames int
	BPM          float64 // last locked tempo, 0 if the clock never locked
	Beats        int     // rising pulse edges
	PeakVolume   float64
	MeanVolume   float64
	Controls     []ControlStats
}

type controlAcc struct {
	min, max, sum float64
	overridden    int
}

// Stats accumulates per-frame figures for the session report
type Stats struct {
	mu        sync.Mutex
	keys      []string
	acc       map[string]*controlAcc
	started   time.Time
	last      time.Time
	frames    int
	locked    int
	bpm       float64
	beats     int
	lastPulse float64
	peakVol   float64
	sumVol    float64
}

// NewStats tracks the given control keys in display order
func NewStats(keys []string) *Stats {
	acc := make(map[string]*controlAcc, len(keys))
	for _, k := range keys {
		acc[k] = &controlAcc{min: math.Inf(1), max: math.Inf(-1)}
	}
	return &Stats{keys: append([]string(nil), keys...), acc: acc}
}

// Observe records one frame
func (s *Stats) Observe(f processor.Frame, overrides processor.Overrides) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frames == 0 {
		s.started = f.At
	}
	s.last = f.At
	s.frames++

	if f.BeatLocked {
		s.locked++
		s.bpm = f.BPM
	}
	if f.Pulse > s.lastPulse {
		s.beats++
	}
	s.lastPulse = f.Pulse

	if f.Volume.Peak > s.peakVol {
		s.peakVol = f.Volume.Peak
	}
	s.sumVol += f.Volume.Average

	for _, k := range s.keys {
		a := s.acc[k]
		v := f.Params[k]
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
		a.sum += v
		if _, ok := overrides[k]; ok {
			a.overridden++
		}
	}
}

// Summary returns the statistics gathered so far
func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{
		Started:      s.started,
		Elapsed:      s.last.Sub(s.started),
		Frames:       s.frames,
		LockedFrames: s.locked,
		BPM:          s.bpm,
		Beats:        s.beats,
		PeakVolume:   s.peakVol,
	}
	if s.frames > 0 {
		sum.MeanVolume = s.sumVol / float64(s.frames)
	}

	for _, k := range s.keys {
		a := s.acc[k]
		cs := ControlStats{Key: k, Overridden: a.overridden}
		if s.frames > 0 {
			cs.Min, cs.Max = a.min, a.max
			cs.Mean = a.sum / float64(s.frames)
		}
		sum.Controls = append(sum.Controls, cs)
	}
	return sum
}
