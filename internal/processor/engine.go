package processor

import (
	"fmt"
	"time"

	"github.com/allapse/feel/internal/orientation"
)

// DefaultBins is the analyser bin count for an FFT size of 256
const DefaultBins = 128

// clockKey names the control whose value speeds up the shader clock
const clockKey = "speed"

// Overrides carries manual values for controls the user is dragging.
// Presence of a key means that control is under manual override this frame.
// The map is owned by the caller and only read by the engine.
type Overrides map[string]float64

// TiltReader exposes the latest smoothed tilt vector
type TiltReader interface {
	Tilt() orientation.Tilt
}

// EngineOptions configures an Engine
type EngineOptions struct {
	Bins int        // spectrum length bindings are validated against (default 128)
	Tilt TiltReader // optional orientation source sampled every tick
}

// Frame is everything the renderer consumes for one display frame
type Frame struct {
	At         time.Time
	Params     map[string]float64 // smoothed value per control key
	Accents    map[string]float64 // secondary peak value per control key
	Openness   map[string]float64 // position of each value in its range, 0..1
	Flash      map[string]float64 // beat flash gated by control openness
	Pulse      float64
	BPM        float64
	BeatLocked bool
	Volume     VolumeReading
	Tilt       orientation.Tilt
	Clock      float64 // shader time, advanced faster at higher speed
}

// control is the per-binding state, a tagged variant over the two modes
type control struct {
	binding    Binding
	normalizer *RangeNormalizer // ModeSpectral
	band       *BandMapper      // ModeLegacy
	accent     float64
}

// Engine runs the per-frame pipeline: volume, beat, features, per-control
// mapping and smoothing. It is not safe for concurrent use; one tick loop
// owns it.
type Engine struct {
	controls  []*control
	smoother  *Smoother
	extractor *FeatureExtractor
	volume    *VolumeMeter
	beat      *BeatClock
	tilt      TiltReader
	clock     float64
	spectral  bool
}

// NewEngine validates bindings and builds an engine for them
func NewEngine(bindings []Binding, opts EngineOptions) (*Engine, error) {
	if len(bindings) == 0 {
		return nil, ErrNoControls
	}
	if opts.Bins <= 0 {
		opts.Bins = DefaultBins
	}

	e := &Engine{
		extractor: NewFeatureExtractor(),
		volume:    NewVolumeMeter(),
		beat:      NewBeatClock(),
		tilt:      opts.Tilt,
	}

	seen := make(map[string]bool, len(bindings))
	initial := make(map[string]float64, len(bindings))
	for _, b := range bindings {
		if err := b.Validate(opts.Bins); err != nil {
			return nil, err
		}
		if seen[b.Key] {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidBinding, b.Key)
		}
		seen[b.Key] = true
		initial[b.Key] = b.Initial

		c := &control{binding: b}
		if b.Mode == ModeLegacy {
			c.band = NewBandMapper(*b.Band)
		} else {
			c.binding.Mode = ModeSpectral
			c.normalizer = NewRangeNormalizer()
			e.spectral = true
		}
		e.controls = append(e.controls, c)
	}
	e.smoother = NewSmoother(initial)

	return e, nil
}

// Tick runs one frame. Controls present in overrides take the manual value
// verbatim and skip target computation; every other control is smoothed
// toward its mapped target.
func (e *Engine) Tick(now time.Time, spectrum []uint8, overrides Overrides) Frame {
	vol := e.volume.Update(spectrum)
	pulse := e.beat.Tick(spectrum, now)

	signal := HasSignal(spectrum)
	var feats Features
	if e.spectral {
		feats = e.extractor.Extract(spectrum)
	}

	frame := Frame{
		At:         now,
		Accents:    make(map[string]float64, len(e.controls)),
		Flash:      make(map[string]float64, len(e.controls)),
		Pulse:      pulse,
		BPM:        e.beat.BPM(),
		BeatLocked: e.beat.State() == BeatLocked,
		Volume:     vol,
	}

	for _, c := range e.controls {
		key := c.binding.Key

		// Flash is gated on the position before this frame's update
		if c.binding.Openness(e.smoother.Value(key)) > flashOpenness {
			frame.Flash[key] = pulse
		} else {
			frame.Flash[key] = 0
		}

		if manual, ok := overrides[key]; ok {
			e.smoother.Set(key, c.binding.Clamp(manual))
			frame.Accents[key] = c.accent
			continue
		}

		switch c.binding.Mode {
		case ModeLegacy:
			ratio, accent := c.band.Update(spectrum)
			c.accent = accent
			e.smoother.Step(key, c.binding.Target(ratio), LegacySmoothing)
		default:
			shaped, peak := c.normalizer.Update(feats.Get(c.binding.ResolvedFeature()), signal)
			if !signal {
				// Near-silent frames (total energy <= 1) rest the control at
				// its minimum. The normalizer does not adapt on them, and a
				// range that collapsed to one value (a silent start) would
				// otherwise pin the control at the shaped neutral point.
				shaped = 0
			}
			c.accent = peak
			e.smoother.Step(key, c.binding.Target(shaped), AdaptiveSmoothing)
		}
		frame.Accents[key] = c.accent
	}

	frame.Params = e.smoother.Snapshot()
	frame.Openness = make(map[string]float64, len(e.controls))
	for _, c := range e.controls {
		frame.Openness[c.binding.Key] = e.Openness(c.binding.Key)
	}

	speed := 0.0
	if v, ok := frame.Params[clockKey]; ok {
		speed = v
	}
	e.clock += clockBaseStep + speed*clockSpeedGain
	frame.Clock = e.clock

	if e.tilt != nil {
		frame.Tilt = e.tilt.Tilt()
	}

	return frame
}

// ResetBeat returns the beat clock to detecting, as on a track change
func (e *Engine) ResetBeat() {
	e.beat.Reset()
}

// Bindings returns the configured bindings in order
func (e *Engine) Bindings() []Binding {
	out := make([]Binding, len(e.controls))
	for i, c := range e.controls {
		out[i] = c.binding
	}
	return out
}

// Range returns the observed feature range of a spectral control.
// ok is false for unknown keys and legacy controls.
func (e *Engine) Range(key string) (lo, hi float64, ok bool) {
	for _, c := range e.controls {
		if c.binding.Key == key && c.normalizer != nil {
			return c.normalizer.Min(), c.normalizer.Max(), true
		}
	}
	return 0, 0, false
}

// Openness returns key's current position in its range, clamped to [0,1]
func (e *Engine) Openness(key string) float64 {
	for _, c := range e.controls {
		if c.binding.Key == key {
			return clamp(c.binding.Openness(e.smoother.Value(key)), 0, 1)
		}
	}
	return 0
}
