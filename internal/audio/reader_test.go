package audio

import (
	"bytes"
	"math"
	"testing"
	"time"
)

func rampTrack(n, rate int) *Track {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i + 1)
	}
	return NewTrack(s, rate)
}

func TestTrackWindow(t *testing.T) {
	tr := rampTrack(10, 10) // one second, one sample per 100ms

	tests := []struct {
		name string
		pos  time.Duration
		n    int
		want []float64
	}{
		{"start is zero padded", 0, 3, []float64{0, 0, 1}},
		{"middle", 500 * time.Millisecond, 3, []float64{4, 5, 6}},
		{"wraps at end", 1100 * time.Millisecond, 4, []float64{9, 10, 1, 2}},
		{"negative position", -time.Second, 2, []float64{0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.Window(tt.pos, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("Window(%v, %d) len = %d, want %d", tt.pos, tt.n, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Window(%v, %d) = %v, want %v", tt.pos, tt.n, got, tt.want)
				}
			}
		})
	}
}

func TestTrackProgress(t *testing.T) {
	tr := rampTrack(44100*2, 44100)
	if got := tr.Duration(); got != 2*time.Second {
		t.Fatalf("Duration = %v, want 2s", got)
	}

	tests := []struct {
		pos      time.Duration
		progress float64
	}{
		{0, 0},
		{500 * time.Millisecond, 0.25},
		{3 * time.Second, 0.5},
		{4 * time.Second, 0},
	}
	for _, tt := range tests {
		if got := tr.Progress(tt.pos); math.Abs(got-tt.progress) > 1e-12 {
			t.Errorf("Progress(%v) = %v, want %v", tt.pos, got, tt.progress)
		}
	}
}

func TestEmptyTrack(t *testing.T) {
	tr := NewTrack(nil, 44100)
	if got := tr.Window(time.Second, 4); len(got) != 4 || got[0] != 0 {
		t.Errorf("Window on empty track = %v", got)
	}
	if tr.Progress(time.Second) != 0 {
		t.Error("Progress on empty track != 0")
	}
}

func TestAppendMono(t *testing.T) {
	// L = 16384, R = -16384 then L = R = 32767
	data := []byte{0x00, 0x40, 0x00, 0xC0, 0xFF, 0x7F, 0xFF, 0x7F}
	got := appendMono(nil, data)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0] != 0 {
		t.Errorf("frame 0 = %v, want 0", got[0])
	}
	if want := 32767.0 / 32768; math.Abs(got[1]-want) > 1e-12 {
		t.Errorf("frame 1 = %v, want %v", got[1], want)
	}
}

func TestDecodeTrackRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeTrack(bytes.NewReader([]byte("not an mp3 stream"))); err == nil {
		t.Error("DecodeTrack succeeded on garbage input")
	}
}

func TestOpenTrackMissingFile(t *testing.T) {
	if _, _, err := OpenTrack("does-not-exist.mp3"); err == nil {
		t.Error("OpenTrack succeeded on a missing file")
	}
}
