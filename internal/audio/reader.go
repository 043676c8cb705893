// Package audio decodes tracks and produces analyser byte spectra from them
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always decodes to interleaved 16-bit little-endian stereo
const (
	decodedChannels = 2
	bytesPerSample  = 2
	bytesPerFrame   = decodedChannels * bytesPerSample
	readChunkBytes  = 16 * 1024
	int16FullScale  = 32768.0
)

// ErrEmptyTrack is returned when a file decodes to no samples
var ErrEmptyTrack = errors.New("track contains no samples")

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	Frames     int
}

// Track is a decoded mono track held in memory. Playback positions past the
// end wrap around, so a track loops for as long as a session runs.
type Track struct {
	samples []float64
	rate    int
}

// NewTrack wraps mono samples at the given rate
func NewTrack(samples []float64, rate int) *Track {
	return &Track{samples: samples, rate: rate}
}

// OpenTrack decodes an MP3 file into memory
func OpenTrack(filename string) (*Track, *Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	track, meta, err := DecodeTrack(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", filename, err)
	}
	return track, meta, nil
}

// DecodeTrack decodes an MP3 stream, downmixing to mono
func DecodeTrack(r io.Reader) (*Track, *Metadata, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	var samples []float64
	if n := decoder.Length(); n > 0 {
		samples = make([]float64, 0, n/bytesPerFrame)
	}

	buf := make([]byte, readChunkBytes)
	var carry []byte
	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			data := buf[:n]
			if len(carry) > 0 {
				data = append(carry, data...)
				carry = nil
			}
			whole := len(data) - len(data)%bytesPerFrame
			samples = appendMono(samples, data[:whole])
			if whole < len(data) {
				carry = append([]byte(nil), data[whole:]...)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, nil, fmt.Errorf("failed to decode frame: %w", err)
		}
	}

	if len(samples) == 0 {
		return nil, nil, ErrEmptyTrack
	}

	rate := decoder.SampleRate()
	meta := &Metadata{
		Duration:   float64(len(samples)) / float64(rate),
		SampleRate: rate,
		Channels:   decodedChannels,
		Frames:     len(samples),
	}
	return NewTrack(samples, rate), meta, nil
}

// appendMono averages interleaved stereo int16 frames into dst
func appendMono(dst []float64, data []byte) []float64 {
	for i := 0; i+bytesPerFrame <= len(data); i += bytesPerFrame {
		l := int16(data[i]) | int16(data[i+1])<<8
		r := int16(data[i+2]) | int16(data[i+3])<<8
		dst = append(dst, (float64(l)+float64(r))/(2*int16FullScale))
	}
	return dst
}

// SampleRate returns the track's sample rate
func (t *Track) SampleRate() int { return t.rate }

// Duration returns the track length
func (t *Track) Duration() time.Duration {
	if t.rate <= 0 {
		return 0
	}
	return time.Duration(len(t.samples)) * time.Second / time.Duration(t.rate)
}

// Window returns the n samples ending at playback position pos. Positions
// wrap at the end of the track; before the first loop completes the
// window is zero padded instead of reaching back into the tail.
func (t *Track) Window(pos time.Duration, n int) []float64 {
	out := make([]float64, n)
	total := len(t.samples)
	if total == 0 || n <= 0 || pos < 0 {
		return out
	}

	abs := int(pos.Seconds() * float64(t.rate))
	for i := 0; i < n; i++ {
		idx := abs - n + 1 + i
		if idx < 0 {
			continue
		}
		out[i] = t.samples[idx%total]
	}
	return out
}

// Progress returns the position within the current loop as a fraction in [0, 1)
func (t *Track) Progress(pos time.Duration) float64 {
	d := t.Duration()
	if d <= 0 || pos < 0 {
		return 0
	}
	return float64(pos%d) / float64(d)
}
