package processor

import "time"

// constantSpectrum returns n bins all at level
func constantSpectrum(n int, level uint8) []uint8 {
	s := make([]uint8, n)
	for i := range s {
		s[i] = level
	}
	return s
}

// impulse returns n silent bins with a single bin at level
func impulse(n, bin int, level uint8) []uint8 {
	s := make([]uint8, n)
	s[bin] = level
	return s
}

// bassHit returns a 128-bin spectrum whose lowest bins exceed the beat threshold
func bassHit() []uint8 {
	s := make([]uint8, 128)
	s[0], s[1], s[2] = 230, 230, 230
	return s
}

// epoch is an arbitrary non-zero start time for clock tests
var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// at returns epoch + ms milliseconds
func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}
