package processor

import (
	"math"
	"testing"
)

func TestRangeNormalizerFirstUpdate(t *testing.T) {
	n := NewRangeNormalizer()
	shaped, peak := n.Update(0.4, true)

	// Collapsed range on the first sample defaults to the neutral value
	want := math.Sqrt(rangeNeutral)
	if math.Abs(shaped-want) > 1e-12 {
		t.Errorf("first shaped = %v, want %v", shaped, want)
	}
	if peak != shaped {
		t.Errorf("first peak = %v, want %v", peak, shaped)
	}
	if n.Min() != 0.4 || n.Max() != 0.4 {
		t.Errorf("range after first update = [%v, %v], want [0.4, 0.4]", n.Min(), n.Max())
	}
}

func TestRangeNormalizerMaxSnapsAndDecays(t *testing.T) {
	n := NewRangeNormalizer()
	n.Update(0.2, true)
	n.Update(0.8, true)
	if n.Max() != 0.8 {
		t.Fatalf("Max after peak = %v, want 0.8 (snap)", n.Max())
	}

	inputs := []float64{0.1, 0.3, 0.0, 0.5, 0.2, 0.05, 0.7, 0.1}
	for i := 0; i < 2000; i++ {
		prev := n.Max()
		n.Update(inputs[i%len(inputs)], true)
		if n.Max() < prev*(1-rangeMaxDecay)-1e-12 {
			t.Fatalf("update %d: Max fell from %v to %v, faster than slow decay", i, prev, n.Max())
		}
		if n.Max() < n.Min() {
			t.Fatalf("update %d: Max %v below Min %v", i, n.Max(), n.Min())
		}
	}
}

func TestRangeNormalizerNoSignalFreezesRange(t *testing.T) {
	n := NewRangeNormalizer()
	n.Update(0.5, true)
	n.Update(0.9, true)
	lo, hi := n.Min(), n.Max()

	for i := 0; i < 100; i++ {
		n.Update(0.0, false)
	}
	if n.Min() != lo || n.Max() != hi {
		t.Errorf("range moved without signal: [%v, %v] -> [%v, %v]", lo, hi, n.Min(), n.Max())
	}
}

func TestRangeNormalizerSawtoothStaysInUnitRange(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
	}{
		{"small scale", 0.01, 0.02},
		{"unit scale", 0.2, 0.9},
		{"large scale", 100, 5000},
		{"negative", -3, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewRangeNormalizer()
			for i := 0; i < 5000; i++ {
				raw := tt.lo
				if i%2 == 1 {
					raw = tt.hi
				}
				shaped, peak := n.Update(raw, true)
				if shaped < 0 || shaped > 1 {
					t.Fatalf("update %d: shaped = %v outside [0,1]", i, shaped)
				}
				if peak < 0 || peak > 1 {
					t.Fatalf("update %d: peak = %v outside [0,1]", i, peak)
				}
			}
			// Once converged the extremes map near the ends of the range
			low, _ := n.Update(tt.lo, true)
			high, _ := n.Update(tt.hi, true)
			if high < 0.9 {
				t.Errorf("converged high shaped = %v, want near 1", high)
			}
			if low > 0.5 {
				t.Errorf("converged low shaped = %v, want near 0", low)
			}
		})
	}
}

func TestRangeNormalizerPeakDecay(t *testing.T) {
	n := NewRangeNormalizer()
	n.Update(0, true)
	n.Update(1, true) // range [~0, 1], shaped 1
	if n.Peak() != 1 {
		t.Fatalf("Peak after full-scale = %v, want 1", n.Peak())
	}
	_, peak := n.Update(0, true)
	if math.Abs(peak-shapedPeakDecay) > 1e-12 {
		t.Errorf("Peak after one quiet update = %v, want %v", peak, shapedPeakDecay)
	}
}

func TestRangeNormalizerSanitizesInput(t *testing.T) {
	n := NewRangeNormalizer()
	shaped, _ := n.Update(math.NaN(), true)
	if math.IsNaN(shaped) {
		t.Error("shaped is NaN for NaN input")
	}
}
