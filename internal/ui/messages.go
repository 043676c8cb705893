package ui

import (
	"time"

	"github.com/allapse/feel/internal/session"
)

// FrameMsg carries one processed frame from the session runner
type FrameMsg session.Update

// SourceMsg describes what is playing
type SourceMsg struct {
	Name     string        // track file name, empty for the synth
	Duration time.Duration // zero for endless sources
	BPM      float64       // synth tempo
}

// ServerMsg reports renderer connectivity in serve mode
type ServerMsg struct {
	Addr    string
	Clients int
}

// DoneMsg signals the session has stopped, with an error if it failed
type DoneMsg struct {
	Err error
}
