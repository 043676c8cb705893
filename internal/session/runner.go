// Package session drives the processing engine at display rate from a
// spectrum source and fans each frame out to its consumers.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/allapse/feel/internal/orientation"
	"github.com/allapse/feel/internal/processor"
)

// DefaultFPS matches a typical display refresh
const DefaultFPS = 60

// commandBuffer bounds queued commands between two ticks
const commandBuffer = 32

// ErrCommandDropped is returned by Send when the queue is full
var ErrCommandDropped = errors.New("command queue full")

// Source supplies one byte spectrum per frame at a playback position
type Source interface {
	Spectrum(at time.Duration) []uint8
}

// Resetter is implemented by sources with history to clear on a track change
type Resetter interface {
	Reset()
}

// Logf is the debug log function threaded through the host
type Logf func(format string, args ...interface{})

// Update is handed to the frame callback once per tick
type Update struct {
	Frame      processor.Frame
	Position   time.Duration
	Progress   float64 // position within the track loop, 0 when unknown
	Overrides  processor.Overrides
	GyroLocked bool
	Calibrated bool
	Direction  orientation.Direction
}

// FrameFunc consumes one update. It runs on the tick goroutine and must
// not block for long.
type FrameFunc func(Update)

// Options configures a Runner
type Options struct {
	FPS      int
	Progress func(time.Duration) float64 // optional track progress
	Logf     Logf
}

// Runner owns the engine and ticks it from a single goroutine
type Runner struct {
	engine    *processor.Engine
	source    Source
	tracker   *orientation.Tracker
	overrides *OverrideSet
	stats     *Stats
	commands  chan Command
	interval  time.Duration
	progress  func(time.Duration) float64
	log       Logf
	start     time.Time
}

// NewRunner builds a runner. tracker may be nil when no orientation input
// is wired.
func NewRunner(engine *processor.Engine, source Source, tracker *orientation.Tracker, opts Options) *Runner {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...interface{}) {}
	}

	bindings := engine.Bindings()
	keys := make([]string, len(bindings))
	for i, b := range bindings {
		keys[i] = b.Key
	}

	return &Runner{
		engine:    engine,
		source:    source,
		tracker:   tracker,
		overrides: NewOverrideSet(),
		stats:     NewStats(keys),
		commands:  make(chan Command, commandBuffer),
		interval:  time.Second / time.Duration(opts.FPS),
		progress:  opts.Progress,
		log:       opts.Logf,
	}
}

// Send queues a command for the next tick without blocking
func (r *Runner) Send(cmd Command) error {
	select {
	case r.commands <- cmd:
		return nil
	default:
		r.log("[SESSION] Dropped command %s", cmd)
		return ErrCommandDropped
	}
}

// Overrides exposes the live override set
func (r *Runner) Overrides() *OverrideSet { return r.overrides }

// Stats exposes the session statistics
func (r *Runner) Stats() *Stats { return r.stats }

// Bindings returns the engine's control bindings
func (r *Runner) Bindings() []processor.Binding { return r.engine.Bindings() }

// Run ticks until ctx is cancelled. It returns nil on cancellation.
func (r *Runner) Run(ctx context.Context, fn FrameFunc) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.log("[SESSION] Running at %v per frame", r.interval)
	for {
		select {
		case <-ctx.Done():
			r.log("[SESSION] Stopped after %d frames", r.stats.Summary().Frames)
			return nil
		case now := <-ticker.C:
			u := r.Step(now)
			if fn != nil {
				fn(u)
			}
		}
	}
}

// Step applies pending commands and runs one frame at wall time now. The
// first call fixes playback position zero.
func (r *Runner) Step(now time.Time) Update {
	if r.start.IsZero() {
		r.start = now
	}
	r.drainCommands()

	pos := now.Sub(r.start)
	overrides := r.overrides.Snapshot()
	frame := r.engine.Tick(now, r.source.Spectrum(pos), overrides)
	r.stats.Observe(frame, overrides)

	u := Update{
		Frame:     frame,
		Position:  pos,
		Overrides: overrides,
	}
	if r.progress != nil {
		u.Progress = r.progress(pos)
	}
	if r.tracker != nil {
		u.GyroLocked = r.tracker.Locked()
		u.Calibrated = r.tracker.Calibrated()
		u.Direction = r.tracker.Direction()
	}
	return u
}

func (r *Runner) drainCommands() {
	for {
		select {
		case cmd := <-r.commands:
			r.apply(cmd)
		default:
			return
		}
	}
}

func (r *Runner) apply(cmd Command) {
	r.log("[SESSION] Applying %s", cmd)
	switch cmd.Kind {
	case CmdResetBeat:
		r.engine.ResetBeat()
	case CmdTrackChange:
		r.engine.ResetBeat()
		if rs, ok := r.source.(Resetter); ok {
			rs.Reset()
		}
	case CmdSetOverride:
		r.overrides.Set(cmd.Key, cmd.Value)
	case CmdReleaseOverride:
		r.overrides.Release(cmd.Key)
	case CmdRecalibrate, CmdLockGyro, CmdUnlockGyro, CmdToggleGyroLock:
		if r.tracker == nil {
			r.log("[SESSION] Ignoring %s: no orientation input", cmd)
			return
		}
		switch cmd.Kind {
		case CmdRecalibrate:
			r.tracker.ResetBaseline()
		case CmdLockGyro:
			r.tracker.Lock()
		case CmdUnlockGyro:
			r.tracker.Unlock()
		case CmdToggleGyroLock:
			if r.tracker.Locked() {
				r.tracker.Unlock()
			} else {
				r.tracker.Lock()
			}
		}
	default:
		r.log("[SESSION] Unknown command %s", cmd)
	}
}
