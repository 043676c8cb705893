package processor

import (
	"math"
	"testing"
)

func TestBandMapperNoiseFloor(t *testing.T) {
	m := NewBandMapper(Band{Low: 0, High: 3})
	ratio, _ := m.Update(constantSpectrum(8, 30))
	if ratio != 0 {
		t.Errorf("ratio at noise floor = %v, want 0", ratio)
	}
	if math.Abs(m.Peak()-initialPeakValue*bandPeakDecay) > 1e-12 {
		t.Errorf("Peak = %v, want decayed initial %v", m.Peak(), initialPeakValue*bandPeakDecay)
	}
}

func TestBandMapperEnvelope(t *testing.T) {
	m := NewBandMapper(Band{Low: 2, High: 5})
	s := make([]uint8, 8)
	for i := 2; i <= 5; i++ {
		s[i] = 130 // avg 130 - 30 = 100
	}

	ratio, accent := m.Update(s)
	wantPeak := initialPeakValue + (100-initialPeakValue)*bandPeakRise
	if math.Abs(m.Peak()-wantPeak) > 1e-9 {
		t.Fatalf("Peak = %v, want %v", m.Peak(), wantPeak)
	}
	// Peak is below the floor of 50 so the ratio divides by 50
	wantRatio := math.Pow(100.0/bandPeakFloor, bandRatioPower)
	if math.Abs(ratio-wantRatio) > 1e-9 {
		t.Errorf("ratio = %v, want %v (may exceed 1)", ratio, wantRatio)
	}
	if math.Abs(accent-wantPeak/225) > 1e-12 {
		t.Errorf("accent = %v, want %v", accent, wantPeak/225)
	}

	// Held input converges the peak onto the average, ratio toward 1
	for i := 0; i < 200; i++ {
		ratio, _ = m.Update(s)
	}
	if math.Abs(ratio-1) > 0.01 {
		t.Errorf("converged ratio = %v, want ~1", ratio)
	}

	// Silence decays the peak slowly
	before := m.Peak()
	m.Update(make([]uint8, 8))
	if got := m.Peak(); math.Abs(got-before*bandPeakDecay) > 1e-9 {
		t.Errorf("Peak after silence = %v, want %v", got, before*bandPeakDecay)
	}
}

func TestBandMapperShortSpectrum(t *testing.T) {
	m := NewBandMapper(Band{Low: 4, High: 10})
	ratio, accent := m.Update([]uint8{255, 255})
	if ratio != 0 || math.IsNaN(accent) {
		t.Errorf("Update on short spectrum = (%v, %v), want (0, finite)", ratio, accent)
	}
}
