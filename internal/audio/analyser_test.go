package audio

import (
	"math"
	"testing"
)

// binSine returns size samples of a sine centred on analyser bin k
func binSine(size, k int, amp float64) []float64 {
	s := make([]float64, size)
	for i := range s {
		s[i] = amp * math.Sin(2*math.Pi*float64(k)*float64(i)/float64(size))
	}
	return s
}

func TestValidFFTSize(t *testing.T) {
	tests := []struct {
		n    int
		want bool
	}{
		{16, false},
		{32, true},
		{256, true},
		{300, false},
		{32768, true},
		{65536, false},
		{0, false},
		{-256, false},
	}
	for _, tt := range tests {
		if got := ValidFFTSize(tt.n); got != tt.want {
			t.Errorf("ValidFFTSize(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestNewAnalyserRejectsBadParams(t *testing.T) {
	if _, err := NewAnalyser(300, DefaultSmoothing); err == nil {
		t.Error("NewAnalyser(300) succeeded, want error")
	}
	if _, err := NewAnalyser(256, 1.5); err == nil {
		t.Error("NewAnalyser with smoothing 1.5 succeeded, want error")
	}
}

func TestAnalyserSilence(t *testing.T) {
	a, err := NewAnalyser(DefaultFFTSize, DefaultSmoothing)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}
	got := a.Analyse(make([]float64, DefaultFFTSize), nil)
	if len(got) != 128 {
		t.Fatalf("len = %d, want 128", len(got))
	}
	for i, v := range got {
		if v != 0 {
			t.Fatalf("bin %d = %d on silence, want 0", i, v)
		}
	}
}

func TestAnalyserSinePeaksAtItsBin(t *testing.T) {
	a, err := NewAnalyser(DefaultFFTSize, 0)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}
	got := a.Analyse(binSine(DefaultFFTSize, 10, 1), nil)

	peak := 0
	for i, v := range got {
		if v > got[peak] {
			peak = i
		}
	}
	if peak != 10 {
		t.Errorf("peak bin = %d, want 10", peak)
	}
	if got[10] != 255 {
		t.Errorf("bin 10 = %d, want 255 for a full-scale sine", got[10])
	}
	if got[40] > 10 {
		t.Errorf("bin 40 = %d, want ~0 far from the tone", got[40])
	}
}

func TestAnalyserSmoothingRampsUp(t *testing.T) {
	a, err := NewAnalyser(DefaultFFTSize, DefaultSmoothing)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}
	tone := binSine(DefaultFFTSize, 20, 0.01)
	first := a.Analyse(tone, nil)[20]
	second := a.Analyse(tone, nil)[20]
	if second <= first {
		t.Errorf("bin 20 went %d -> %d, want a rise while smoothing settles", first, second)
	}

	a.Reset()
	if again := a.Analyse(tone, nil)[20]; again != first {
		t.Errorf("after Reset bin 20 = %d, want %d", again, first)
	}
}

func TestAnalyserShortInputAndDstReuse(t *testing.T) {
	a, err := NewAnalyser(64, 0)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}
	dst := make([]uint8, 0, 64)
	got := a.Analyse([]float64{1, -1, math.NaN(), math.Inf(1)}, dst)
	if len(got) != 32 {
		t.Fatalf("len = %d, want 32", len(got))
	}
	if &got[0] != &dst[:1][0] {
		t.Error("Analyse did not reuse dst")
	}
}
