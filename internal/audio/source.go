package audio

import "time"

// Signal is anything that can hand out a window of mono samples at a
// playback position
type Signal interface {
	Window(pos time.Duration, n int) []float64
	SampleRate() int
}

// Source runs a Signal through an Analyser, one spectrum per display frame
type Source struct {
	signal   Signal
	analyser *Analyser
}

// NewSource pairs a signal with an analyser
func NewSource(signal Signal, analyser *Analyser) *Source {
	return &Source{signal: signal, analyser: analyser}
}

// Spectrum returns a fresh byte spectrum for playback position at. Calls are
// expected in time order; the analyser's smoothing carries between them.
func (s *Source) Spectrum(at time.Duration) []uint8 {
	samples := s.signal.Window(at, s.analyser.Size())
	return s.analyser.Analyse(samples, nil)
}

// Bins returns the spectrum length
func (s *Source) Bins() int {
	return s.analyser.Bins()
}

// Reset clears analyser history, as when the track changes
func (s *Source) Reset() {
	s.analyser.Reset()
}
